// Package csvout owns the four *_has_*.csv output files and the
// header-once-per-file bookkeeping around has.Correction.Emit.
package csvout

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dborio/gohas/pkg/has"
)

// Writer fans out Correction records to the four suffix-named CSV files
// described in SPEC_FULL.md §4.I/§6, writing each file's header exactly once.
type Writer struct {
	dir     string
	files   map[has.CorrectionKind]*os.File
	writers map[has.CorrectionKind]*csv.Writer
}

var suffixes = map[has.CorrectionKind]string{
	has.KindOrbit:     "_has_orb.csv",
	has.KindClock:     "_has_clk.csv",
	has.KindCodeBias:  "_has_cb.csv",
	has.KindPhaseBias: "_has_cp.csv",
}

var headers = map[has.CorrectionKind][]string{
	has.KindOrbit:     has.OrbitHeader,
	has.KindClock:     has.ClockHeader,
	has.KindCodeBias:  has.CodeBiasHeader,
	has.KindPhaseBias: has.PhaseBiasHeader,
}

// New opens (or truncates) the four output files under dir, named
// baseName+suffix, and writes each file's header row immediately.
func New(dir, baseName string) (*Writer, error) {
	w := &Writer{
		dir:     dir,
		files:   make(map[has.CorrectionKind]*os.File),
		writers: make(map[has.CorrectionKind]*csv.Writer),
	}
	for kind, suffix := range suffixes {
		path := filepath.Join(dir, baseName+suffix)
		f, err := os.Create(path)
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("csvout: creating %s: %w", path, err)
		}
		w.files[kind] = f

		cw := csv.NewWriter(f)
		if err := cw.Write(headers[kind]); err != nil {
			w.Close()
			return nil, fmt.Errorf("csvout: writing header for %s: %w", path, err)
		}
		w.writers[kind] = cw
	}
	return w, nil
}

// Write emits one Correction to its kind's file.
func (w *Writer) Write(c *has.Correction) error {
	cw, ok := w.writers[c.Kind]
	if !ok {
		return fmt.Errorf("csvout: no writer registered for kind %v", c.Kind)
	}
	return c.Emit(cw)
}

// Flush flushes every underlying csv.Writer, returning the first error.
func (w *Writer) Flush() error {
	var first error
	for _, cw := range w.writers {
		cw.Flush()
		if err := cw.Error(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close flushes and closes every open output file.
func (w *Writer) Close() error {
	var first error
	if err := w.Flush(); err != nil && first == nil {
		first = err
	}
	for _, f := range w.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
