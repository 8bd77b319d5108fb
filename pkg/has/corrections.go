package has

import (
	"fmt"
	"math"
)

// validityTable is ICD Table 13: a 4-bit validity index maps to a duration
// in seconds, with the final entry meaning indefinite (represented -1).
var validityTable = [16]int{
	5, 10, 15, 20, 30, 60, 90, 120, 180, 240, 300, 600, 900, 1800, 3600, -1,
}

func validityFromIndex(idx uint64) int { return validityTable[idx&0xF] }

// CorrectionKind tags which payload a Correction carries.
type CorrectionKind int

const (
	KindOrbit CorrectionKind = iota
	KindClock
	KindCodeBias
	KindPhaseBias
)

// Header is the common record prefix shared by every correction type.
type Header struct {
	ToW      int
	ToH      int
	IOD      int
	Validity int
	GnssID   int
	PRN      int
}

// ClockStatus mirrors the 13-bit clock-delta sentinel outcomes.
type ClockStatus int

const (
	ClockOK ClockStatus = iota
	ClockNotAvailable
	ClockShallNotBeUsed
)

type OrbitCorrection struct {
	Header
	GnssIOD         int
	DeltaRadial     float64
	DeltaInTrack    float64
	DeltaCrossTrack float64
}

type ClockCorrection struct {
	Header
	GnssIOD      int
	Multiplier   int
	DeltaClockC0 float64
	Status       ClockStatus
}

// SignalBias is one signal's entry within a CodeBias/PhaseBias record.
type SignalBias struct {
	Signal                int
	Bias                  float64
	Available             bool
	PhaseDiscontinuityIdx int // meaningful for phase bias only
}

type CodeBias struct {
	Header
	GnssIOD int
	Biases  []SignalBias
}

type PhaseBias struct {
	Header
	GnssIOD int
	Biases  []SignalBias
}

// Correction is the tagged variant emitted by the decoder's drain step.
type Correction struct {
	Kind      CorrectionKind
	Orbit     *OrbitCorrection
	Clock     *ClockCorrection
	CodeBias  *CodeBias
	PhaseBias *PhaseBias
}

type epochInfo struct {
	tow, toh, iod int
}

type iodKey struct {
	GnssID, PRN int
}

func gnssIODBitWidth(gnssID int) (int, error) {
	switch gnssID {
	case 0: // GPS
		return 8, nil
	case 2: // Galileo
		return 10, nil
	default:
		return 0, fmt.Errorf("%w: gnss id %d", ErrUnsupportedGnss, gnssID)
	}
}

func decodeSigned13(raw uint64, scale float64, sentinel uint64) float64 {
	if raw == sentinel {
		return math.NaN()
	}
	return float64(TwosComplement(raw, 13)) * scale
}

func decodeSigned12(raw uint64, scale float64, sentinel uint64) float64 {
	if raw == sentinel {
		return math.NaN()
	}
	return float64(TwosComplement(raw, 12)) * scale
}

func parseOrbitCorrections(body []byte, cur *Cursor, masks []*Mask, iods map[iodKey]int, info epochInfo) ([]Correction, error) {
	vi, err := ReadBits(body, cur, 4)
	if err != nil {
		return nil, err
	}
	validity := validityFromIndex(vi)

	var out []Correction
	for _, m := range masks {
		iodBits, err := gnssIODBitWidth(m.GnssID)
		if err != nil {
			return nil, err
		}
		for _, prn := range m.PRNs {
			gnssIOD, err := ReadBits(body, cur, iodBits)
			if err != nil {
				return nil, err
			}
			radialRaw, err := ReadBits(body, cur, 13)
			if err != nil {
				return nil, err
			}
			inTrackRaw, err := ReadBits(body, cur, 12)
			if err != nil {
				return nil, err
			}
			crossTrackRaw, err := ReadBits(body, cur, 12)
			if err != nil {
				return nil, err
			}

			iods[iodKey{m.GnssID, prn}] = int(gnssIOD)

			out = append(out, Correction{
				Kind: KindOrbit,
				Orbit: &OrbitCorrection{
					Header: Header{
						ToW: info.tow, ToH: info.toh, IOD: info.iod,
						Validity: validity, GnssID: m.GnssID, PRN: prn,
					},
					GnssIOD:         int(gnssIOD),
					DeltaRadial:     decodeSigned13(radialRaw, 0.0025, 0x1000),
					DeltaInTrack:    decodeSigned12(inTrackRaw, 0.008, 0x800),
					DeltaCrossTrack: decodeSigned12(crossTrackRaw, 0.008, 0x800),
				},
			})
		}
	}
	return out, nil
}

func decodeClockDelta(raw uint64) (float64, ClockStatus) {
	switch raw {
	case 0x1000:
		return 0, ClockNotAvailable
	case 0xFFF:
		return 0, ClockShallNotBeUsed
	default:
		return float64(TwosComplement(raw, 13)) * 0.0025, ClockOK
	}
}

func parseClockFullCorrections(body []byte, cur *Cursor, masks []*Mask, iods map[iodKey]int, info epochInfo) ([]Correction, error) {
	vi, err := ReadBits(body, cur, 4)
	if err != nil {
		return nil, err
	}
	validity := validityFromIndex(vi)

	mult := make([]int, len(masks))
	for i := range masks {
		mi, err := ReadBits(body, cur, 2)
		if err != nil {
			return nil, err
		}
		mult[i] = int(mi) + 1
	}

	var out []Correction
	for i, m := range masks {
		for _, prn := range m.PRNs {
			raw, err := ReadBits(body, cur, 13)
			if err != nil {
				return nil, err
			}
			delta, status := decodeClockDelta(raw)
			out = append(out, Correction{
				Kind: KindClock,
				Clock: &ClockCorrection{
					Header: Header{
						ToW: info.tow, ToH: info.toh, IOD: info.iod,
						Validity: validity, GnssID: m.GnssID, PRN: prn,
					},
					GnssIOD:      iods[iodKey{m.GnssID, prn}],
					Multiplier:   mult[i],
					DeltaClockC0: delta,
					Status:       status,
				},
			})
		}
	}
	return out, nil
}

func parseClockSubsetCorrections(body []byte, cur *Cursor, masks []*Mask, iods map[iodKey]int, info epochInfo) ([]Correction, error) {
	vi, err := ReadBits(body, cur, 4)
	if err != nil {
		return nil, err
	}
	validity := validityFromIndex(vi)

	nsys, err := ReadBits(body, cur, 4)
	if err != nil {
		return nil, err
	}

	var out []Correction
	for i := uint64(0); i < nsys; i++ {
		gnssID, err := ReadBits(body, cur, 4)
		if err != nil {
			return nil, err
		}
		mask := findMaskByGnssID(masks, int(gnssID))
		if mask == nil {
			return nil, fmt.Errorf("%w: gnss id %d", ErrMissingMask, gnssID)
		}
		multRaw, err := ReadBits(body, cur, 2)
		if err != nil {
			return nil, err
		}
		mult := int(multRaw) + 1

		nprn := len(mask.PRNs)
		var subsetRaw uint64
		if nprn > 0 {
			subsetRaw, err = ReadBits(body, cur, nprn)
			if err != nil {
				return nil, err
			}
		}

		for k, prn := range mask.PRNs {
			shift := nprn - 1 - k
			if (subsetRaw>>uint(shift))&1 != 1 {
				continue
			}
			raw, err := ReadBits(body, cur, 13)
			if err != nil {
				return nil, err
			}
			delta, status := decodeClockDelta(raw)
			out = append(out, Correction{
				Kind: KindClock,
				Clock: &ClockCorrection{
					Header: Header{
						ToW: info.tow, ToH: info.toh, IOD: info.iod,
						Validity: validity, GnssID: int(gnssID), PRN: prn,
					},
					GnssIOD:      iods[iodKey{int(gnssID), prn}],
					Multiplier:   mult,
					DeltaClockC0: delta,
					Status:       status,
				},
			})
		}
	}
	return out, nil
}

func parseCodeBiasCorrections(body []byte, cur *Cursor, masks []*Mask, iods map[iodKey]int, info epochInfo) ([]Correction, error) {
	vi, err := ReadBits(body, cur, 4)
	if err != nil {
		return nil, err
	}
	validity := validityFromIndex(vi)

	var out []Correction
	for _, m := range masks {
		for i, prn := range m.PRNs {
			signals := m.SignalsForPRN(i)
			biases := make([]SignalBias, 0, len(signals))
			for _, sig := range signals {
				raw, err := ReadBits(body, cur, 11)
				if err != nil {
					return nil, err
				}
				sb := SignalBias{Signal: sig}
				if raw == 0x400 {
					sb.Available = false
				} else {
					sb.Available = true
					sb.Bias = float64(TwosComplement(raw, 11)) * 0.02
				}
				biases = append(biases, sb)
			}
			if len(biases) == 0 {
				continue
			}
			out = append(out, Correction{
				Kind: KindCodeBias,
				CodeBias: &CodeBias{
					Header: Header{
						ToW: info.tow, ToH: info.toh, IOD: info.iod,
						Validity: validity, GnssID: m.GnssID, PRN: prn,
					},
					GnssIOD: iods[iodKey{m.GnssID, prn}],
					Biases:  biases,
				},
			})
		}
	}
	return out, nil
}

func parsePhaseBiasCorrections(body []byte, cur *Cursor, masks []*Mask, iods map[iodKey]int, info epochInfo) ([]Correction, error) {
	vi, err := ReadBits(body, cur, 4)
	if err != nil {
		return nil, err
	}
	validity := validityFromIndex(vi)

	var out []Correction
	for _, m := range masks {
		for i, prn := range m.PRNs {
			signals := m.SignalsForPRN(i)
			biases := make([]SignalBias, 0, len(signals))
			for _, sig := range signals {
				raw, err := ReadBits(body, cur, 11)
				if err != nil {
					return nil, err
				}
				discIdx, err := ReadBits(body, cur, 2)
				if err != nil {
					return nil, err
				}
				sb := SignalBias{Signal: sig, PhaseDiscontinuityIdx: int(discIdx)}
				if raw == 0x400 {
					sb.Available = false
				} else {
					sb.Available = true
					sb.Bias = float64(TwosComplement(raw, 11)) * 0.01
				}
				biases = append(biases, sb)
			}
			if len(biases) == 0 {
				continue
			}
			out = append(out, Correction{
				Kind: KindPhaseBias,
				PhaseBias: &PhaseBias{
					Header: Header{
						ToW: info.tow, ToH: info.toh, IOD: info.iod,
						Validity: validity, GnssID: m.GnssID, PRN: prn,
					},
					GnssIOD: iods[iodKey{m.GnssID, prn}],
					Biases:  biases,
				},
			})
		}
	}
	return out, nil
}
