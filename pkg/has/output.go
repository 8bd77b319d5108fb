package has

import (
	"encoding/csv"
	"math"
	"strconv"
)

// Component I: CSV serialisation with the stable column order of the
// external output contract. validity=-1 means indefinite; NaN is written
// literally as "nan"; code/phase bias records emit one row per signal.

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func clockStatusString(s ClockStatus) string {
	switch s {
	case ClockNotAvailable:
		return "1"
	case ClockShallNotBeUsed:
		return "2"
	default:
		return "0"
	}
}

func availFlagString(ok bool) string {
	if ok {
		return "1.0"
	}
	return "0.0"
}

// OrbitHeader is the column header for orbit-correction CSV files.
var OrbitHeader = []string{"ToW", "ToH", "IOD", "validity", "gnssID", "PRN", "gnssIOD", "delta_radial", "delta_in_track", "delta_cross_track"}

// ClockHeader is the column header for clock-correction CSV files.
var ClockHeader = []string{"ToW", "ToH", "IOD", "validity", "gnssID", "PRN", "multiplier", "delta_clock_c0", "status"}

// CodeBiasHeader is the column header for code-bias CSV files.
var CodeBiasHeader = []string{"ToW", "ToH", "IOD", "validity", "gnssID", "PRN", "signal", "code_bias", "av_flag"}

// PhaseBiasHeader is the column header for phase-bias CSV files.
var PhaseBiasHeader = []string{"ToW", "ToH", "IOD", "validity", "gnssID", "PRN", "signal", "phase_bias", "av_flag", "phase_discontinuity_ind"}

func headerFields(h Header) []string {
	return []string{
		strconv.Itoa(h.ToW), strconv.Itoa(h.ToH), strconv.Itoa(h.IOD),
		strconv.Itoa(h.Validity), strconv.Itoa(h.GnssID), strconv.Itoa(h.PRN),
	}
}

// Emit writes one or more CSV rows for this correction using the
// appropriate column layout. Orbit and clock records write exactly one
// row; bias records write one row per signal.
func (c *Correction) Emit(w *csv.Writer) error {
	switch c.Kind {
	case KindOrbit:
		o := c.Orbit
		row := append(headerFields(o.Header),
			strconv.Itoa(o.GnssIOD),
			formatFloat(o.DeltaRadial),
			formatFloat(o.DeltaInTrack),
			formatFloat(o.DeltaCrossTrack),
		)
		return w.Write(row)
	case KindClock:
		cl := c.Clock
		row := append(headerFields(cl.Header),
			strconv.Itoa(cl.Multiplier),
			formatFloat(cl.DeltaClockC0),
			clockStatusString(cl.Status),
		)
		return w.Write(row)
	case KindCodeBias:
		cb := c.CodeBias
		for _, b := range cb.Biases {
			row := append(headerFields(cb.Header),
				strconv.Itoa(b.Signal),
				formatFloat(b.Bias),
				availFlagString(b.Available),
			)
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	case KindPhaseBias:
		pb := c.PhaseBias
		for _, b := range pb.Biases {
			row := append(headerFields(pb.Header),
				strconv.Itoa(b.Signal),
				formatFloat(b.Bias),
				availFlagString(b.Available),
				strconv.Itoa(b.PhaseDiscontinuityIdx),
			)
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}
