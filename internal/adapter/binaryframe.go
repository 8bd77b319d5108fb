package adapter

import (
	"encoding/binary"
	"io"

	"github.com/dborio/gohas/pkg/has"
)

// binaryFrame is one demultiplexed page block: a big-endian TOW, week
// number, CRC-passed flag and the 16-word CNAV page. Unlike Septentrio's
// text capture there is no public reference format for Javad, Novatel or
// Topcon in original_source/, so each adapter below is described only by
// the Adapter interface it presents, backed by this shared frame reader.
type binaryFrame struct {
	tow, weekNumber int
	page            has.RawPage
}

type binaryFrameReader struct {
	r       io.Reader
	pending *binaryFrame
}

func (b *binaryFrameReader) readFrame() (*binaryFrame, error) {
	var header [9]byte
	if _, err := io.ReadFull(b.r, header[:]); err != nil {
		return nil, err
	}
	var wordsBuf [64]byte
	if _, err := io.ReadFull(b.r, wordsBuf[:]); err != nil {
		return nil, err
	}
	var words [16]uint32
	for i := 0; i < 16; i++ {
		words[i] = binary.BigEndian.Uint32(wordsBuf[i*4 : i*4+4])
	}
	return &binaryFrame{
		tow:        int(binary.BigEndian.Uint32(header[0:4])),
		weekNumber: int(binary.BigEndian.Uint16(header[4:6])),
		page:       has.RawPage{CRCPassed: header[6] != 0, Words: words},
	}, nil
}

func (b *binaryFrameReader) next() (*binaryFrame, error) {
	if b.pending != nil {
		f := b.pending
		b.pending = nil
		return f, nil
	}
	return b.readFrame()
}

// nextEpoch groups consecutive frames sharing a TOW into one Epoch,
// pushing the first frame of the next TOW back for the following call.
func (b *binaryFrameReader) nextEpoch() (has.Epoch, error) {
	first, err := b.next()
	if err != nil {
		return has.Epoch{}, err
	}
	epoch := has.Epoch{TOW: first.tow, WeekNumber: first.weekNumber, Pages: []has.RawPage{first.page}}

	for {
		f, err := b.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return has.Epoch{}, err
		}
		if f.tow != first.tow {
			b.pending = f
			break
		}
		epoch.Pages = append(epoch.Pages, f.page)
	}
	return epoch, nil
}

// Javad reads a framed binary capture, one page block per frame.
type Javad struct{ reader binaryFrameReader }

func NewJavad(r io.Reader) *Javad { return &Javad{reader: binaryFrameReader{r: r}} }

func (j *Javad) Next() (has.Epoch, error) { return j.reader.nextEpoch() }

// Novatel reads the same framed binary shape as Javad.
type Novatel struct{ reader binaryFrameReader }

func NewNovatel(r io.Reader) *Novatel { return &Novatel{reader: binaryFrameReader{r: r}} }

func (n *Novatel) Next() (has.Epoch, error) { return n.reader.nextEpoch() }

// Topcon reads the same framed binary shape as Javad/Novatel.
type Topcon struct{ reader binaryFrameReader }

func NewTopcon(r io.Reader) *Topcon { return &Topcon{reader: binaryFrameReader{r: r}} }

func (t *Topcon) Next() (has.Epoch, error) { return t.reader.nextEpoch() }
