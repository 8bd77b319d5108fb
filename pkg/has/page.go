package has

// dummyHeaderMarker is the 24-bit HAS header value reserved for dummy
// (non-data) pages; receivers emit these as filler and they carry no
// message content.
const dummyHeaderMarker = 0xAF3BC3

// Page is one already-body-extracted HAS page ready to be handed to a
// message assembler.
type Page struct {
	PageID int
	Bytes  [53]byte
}

// RawPage is the 16-word E6-B C/NAV page block exactly as a receiver
// delivers it, before the HAS header/body split.
type RawPage struct {
	CRCPassed bool
	Words     [16]uint32
}

type pageHeader struct {
	MType  int
	MID    int
	MSize  int
	PageID int
	Status int
}

// extractPageHeader reassembles the 24-bit HAS header from the first two
// CNAV words: the 18 low bits of word 0 become the header's 18 MSBs, and
// the top 6 bits of word 1 become its 6 LSBs.
func extractPageHeader(words [16]uint32) uint32 {
	return ((words[0] & 0x3FFFF) << 6) + (words[1] >> 26)
}

func interpretPageHeader(header uint32, pageIDOffset int) pageHeader {
	return pageHeader{
		Status: int((header >> 22) & 0x3),
		MType:  int((header >> 18) & 0x3),
		MID:    int((header >> 13) & 0x1F),
		MSize:  int((header>>8)&0x1F) + 1,
		PageID: int(header&0xFF) - pageIDOffset,
	}
}

// extractPageBody repacks the 53-byte HAS page body out of the 14 CNAV
// words that remain once the header is peeled off. This mirrors the
// reference byte-by-byte reassembly exactly: each word contributes its top
// 6 bits to the carry from the previous word and hands 2 bits forward as
// the next carry; word 15 is never used.
func extractPageBody(words [16]uint32) [53]byte {
	var body [53]byte
	body[0] = byte((words[1] >> 18) & 0xFF)
	body[1] = byte((words[1] >> 10) & 0xFF)
	body[2] = byte((words[1] >> 2) & 0xFF)
	rem := byte((words[1] & 0x3) << 6)
	for ii := 2; ii < 14; ii++ {
		idx := 3 + (ii-2)*4
		body[idx] = rem + byte((words[ii]>>26)&0x3F)
		body[idx+1] = byte((words[ii] >> 18) & 0xFF)
		body[idx+2] = byte((words[ii] >> 10) & 0xFF)
		body[idx+3] = byte((words[ii] >> 2) & 0xFF)
		rem = byte((words[ii] & 0x3) << 6)
	}
	body[51] = rem + byte((words[14]>>26)&0x3F)
	body[52] = byte((words[14] >> 18) & 0xFF)
	return body
}

// NewPage validates and splits a receiver's raw page block into the
// assembler-ready Page plus its routing key (mtype, mid, msize).
func NewPage(raw RawPage, pageIDOffset int) (page Page, mtype, mid, msize int, err error) {
	if !raw.CRCPassed {
		return Page{}, 0, 0, 0, &Error{Kind: KindTransient, Op: "page", Err: ErrCrcFailed}
	}
	header := extractPageHeader(raw.Words)
	if header == dummyHeaderMarker {
		return Page{}, 0, 0, 0, &Error{Kind: KindTransient, Op: "page", Err: ErrDummyHasPage}
	}
	h := interpretPageHeader(header, pageIDOffset)
	if h.Status == 3 {
		return Page{}, 0, 0, 0, &Error{Kind: KindTransient, Op: "page", Err: ErrUnknownStatus}
	}
	body := extractPageBody(raw.Words)
	return Page{PageID: h.PageID, Bytes: body}, h.MType, h.MID, h.MSize, nil
}
