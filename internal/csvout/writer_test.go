package csvout_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dborio/gohas/internal/csvout"
	"github.com/dborio/gohas/pkg/has"
	"github.com/stretchr/testify/require"
)

func TestWriterWritesHeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	w, err := csvout.New(dir, "run1")
	require.NoError(t, err)

	c := &has.Correction{
		Kind: has.KindOrbit,
		Orbit: &has.OrbitCorrection{
			Header:          has.Header{ToW: 1, ToH: 2, IOD: 3, Validity: 60, GnssID: 2, PRN: 5},
			GnssIOD:         10,
			DeltaRadial:     1.5,
			DeltaInTrack:    0,
			DeltaCrossTrack: 0,
		},
	}
	require.NoError(t, w.Write(c))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(filepath.Join(dir, "run1_has_orb.csv"))
	require.NoError(t, err)
	require.Contains(t, string(data), "ToW,ToH,IOD,validity,gnssID,PRN,gnssIOD,delta_radial,delta_in_track,delta_cross_track")
	require.Contains(t, string(data), "1,2,3,60,2,5,10,1.5,0,0")
}
