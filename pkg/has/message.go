package has

import "fmt"

// Message is one (mtype,id,size) assembler: a fixed-size bucket of pages
// accumulating toward RS decode. EMPTY/PARTIAL/COMPLETE are derived from
// len(pages) rather than tracked explicitly.
type Message struct {
	MType int
	ID    int
	Size  int

	pages   [][53]byte
	pageIDs []int
	age     int
}

func NewMessage(mtype, id, size int) *Message {
	return &Message{MType: mtype, ID: id, Size: size}
}

func (m *Message) IsMessage(mtype, id, size int) bool {
	return m.MType == mtype && m.ID == id && m.Size == size
}

// AddPage reports whether page_id was new. Duplicates are silently
// discarded, and age resets to 0 on every call, successful or not.
func (m *Message) AddPage(pageID int, body [53]byte) bool {
	m.age = 0
	if len(m.pages) >= m.Size {
		return false
	}
	for _, id := range m.pageIDs {
		if id == pageID {
			return false
		}
	}
	m.pageIDs = append(m.pageIDs, pageID)
	m.pages = append(m.pages, body)
	return true
}

func (m *Message) IncreaseAge() { m.age++ }

func (m *Message) Age() int { return m.age }

func (m *Message) IsOld(limitAge int) bool { return m.age > limitAge }

func (m *Message) Complete() bool { return len(m.pages) == m.Size }

// Decode solves M = H_R^{-1} . P over GF(2^8), where H_R is the size x
// size submatrix of the shared encoding matrix indexed by this message's
// stored page-ids in insertion order, and P is the size x 53 page matrix
// in the same order.
func (m *Message) Decode() ([]byte, error) {
	if !m.Complete() {
		return nil, fmt.Errorf("has: message not complete")
	}
	if m.MType != 1 {
		return nil, fmt.Errorf("has: decode only defined for mtype 1, got %d", m.MType)
	}

	if m.Size < 1 || m.Size > rsK {
		return nil, fmt.Errorf("has: message size %d out of range", m.Size)
	}

	h, err := EncodingMatrix()
	if err != nil {
		return nil, err
	}

	hr := make([][]byte, m.Size)
	for i, pid := range m.pageIDs {
		if pid < 0 || pid >= rsN {
			return nil, fmt.Errorf("has: page id %d out of range", pid)
		}
		row := make([]byte, m.Size)
		copy(row, h[pid][:m.Size])
		hr[i] = row
	}

	hrInv, err := invertMatrixGF256(hr)
	if err != nil {
		return nil, ErrSingularMatrix
	}

	out := make([]byte, m.Size*53)
	for i := 0; i < m.Size; i++ {
		for c := 0; c < 53; c++ {
			var acc byte
			for k := 0; k < m.Size; k++ {
				acc = gf256Add(acc, gf256Mul(hrInv[i][k], m.pages[k][c]))
			}
			out[i*53+c] = acc
		}
	}
	return out, nil
}
