package has

// GalileoSignalNames maps a Galileo signal-mask bit position (1-based) to
// its ICD name. Index 0 is unused.
var GalileoSignalNames = [17]string{
	"", "E1-B", "E1-C", "E1-B+E1-C", "E5a-I", "E5a-Q", "E5a-I+E5a-Q",
	"E5b-I", "E5b-Q", "E5b-I+E5b-Q", "E5-I", "E5-Q", "E5-I+E5-Q",
	"E6-B", "E6-C", "E6-B+E6-C", "Reserved",
}

// GPSSignalNames maps a GPS signal-mask bit position (1-based) to its ICD
// name. Unlisted positions are reserved.
var GPSSignalNames = [17]string{
	"", "L1 C/A", "Reserved", "Reserved", "L1C(D)", "L1C(P)", "L1C(D+P)",
	"L2C(M)", "L2C(L)", "L2C(M+L)", "L2P", "Reserved", "L5-I", "L5-Q",
	"L5-I+L5-Q", "Reserved", "Reserved",
}

// Mask is one system's satellite/signal mask from an MT1 Mask block.
type Mask struct {
	GnssID       int
	PRNs         []int
	Signals      []int
	CellMaskFlag bool
	// CellMask[i][k] is set iff satellite PRNs[i] carries Signals[k], only
	// populated when CellMaskFlag is true.
	CellMask   [][]bool
	NavMessage int
}

// SignalsForPRN returns the signal-mask entries applicable to the
// satellite at index i in m.PRNs: all of m.Signals when no cell mask was
// sent, otherwise the per-satellite subset the cell mask selects.
func (m *Mask) SignalsForPRN(i int) []int {
	if !m.CellMaskFlag {
		return m.Signals
	}
	if i < 0 || i >= len(m.CellMask) {
		return nil
	}
	row := m.CellMask[i]
	out := make([]int, 0, len(m.Signals))
	for k, sig := range m.Signals {
		if row[k] {
			out = append(out, sig)
		}
	}
	return out
}

func findMaskByGnssID(masks []*Mask, gnssID int) *Mask {
	for _, m := range masks {
		if m.GnssID == gnssID {
			return m
		}
	}
	return nil
}

func parseMasks(body []byte, cur *Cursor) ([]*Mask, error) {
	nsys, err := ReadBits(body, cur, 4)
	if err != nil {
		return nil, err
	}
	masks := make([]*Mask, 0, nsys)
	for i := uint64(0); i < nsys; i++ {
		m, err := parseOneMask(body, cur)
		if err != nil {
			return nil, err
		}
		masks = append(masks, m)
	}
	if _, err := ReadBits(body, cur, 6); err != nil {
		return nil, err
	}
	return masks, nil
}

func parseOneMask(body []byte, cur *Cursor) (*Mask, error) {
	gnssID, err := ReadBits(body, cur, 4)
	if err != nil {
		return nil, err
	}
	satMask, err := ReadBits(body, cur, 40)
	if err != nil {
		return nil, err
	}
	prns := bitsToList(satMask, 40)

	sigMask, err := ReadBits(body, cur, 16)
	if err != nil {
		return nil, err
	}
	signals := bitsToList(sigMask, 16)

	cellFlagBit, err := ReadBits(body, cur, 1)
	if err != nil {
		return nil, err
	}
	cellFlag := cellFlagBit == 1

	var cellMask [][]bool
	if cellFlag {
		cellMask = make([][]bool, len(prns))
		for i := range prns {
			if len(signals) == 0 {
				cellMask[i] = nil
				continue
			}
			raw, err := ReadBits(body, cur, len(signals))
			if err != nil {
				return nil, err
			}
			row := make([]bool, len(signals))
			for k := 0; k < len(signals); k++ {
				shift := len(signals) - 1 - k
				row[k] = (raw>>uint(shift))&1 == 1
			}
			cellMask[i] = row
		}
	}

	navMsg, err := ReadBits(body, cur, 3)
	if err != nil {
		return nil, err
	}

	return &Mask{
		GnssID:       int(gnssID),
		PRNs:         prns,
		Signals:      signals,
		CellMaskFlag: cellFlag,
		CellMask:     cellMask,
		NavMessage:   int(navMsg),
	}, nil
}

// bitsToList reads an nbits-wide value MSB-first and returns the 1-based
// positions of its set bits, position j+1 for bit j counted from the MSB.
func bitsToList(mask uint64, nbits int) []int {
	var out []int
	for j := 0; j < nbits; j++ {
		shift := nbits - 1 - j
		if (mask>>uint(shift))&1 == 1 {
			out = append(out, j+1)
		}
	}
	return out
}
