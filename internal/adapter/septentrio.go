package adapter

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dborio/gohas/pkg/has"
)

// SeptentrioFormat selects the two text-capture encodings process_cnav.py
// recognised via its "hexa"/"txt" branches.
type SeptentrioFormat int

const (
	FormatHex SeptentrioFormat = iota
	FormatDecimal
)

// Septentrio reads the comma/space-separated capture format:
// TOW, WNc, SVID, CRCPassed, ViterbiCnt, signalType, word1..word16
//
// When Interpreted is false, TOW is taken as receiver-raw milliseconds
// (divided by 1000 here) and SVID as carrying a Septentrio-specific +70
// offset (subtracted here); when it is true, both are used as read. This
// is an explicit field rather than a runtime heuristic, per the adapter
// contract.
type Septentrio struct {
	Format      SeptentrioFormat
	Interpreted bool

	scanner *bufio.Scanner
	pending *septentrioRow
	done    bool
}

type septentrioRow struct {
	tow        int
	weekNumber int
	svid       int
	crcPassed  bool
	signalType int
	words      [16]uint32
}

// NewSeptentrio builds an adapter over r using the given format/mode.
func NewSeptentrio(r io.Reader, format SeptentrioFormat, interpreted bool) *Septentrio {
	return &Septentrio{
		Format:      format,
		Interpreted: interpreted,
		scanner:     bufio.NewScanner(r),
	}
}

func (s *Septentrio) parseRow(line string) (*septentrioRow, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	if len(fields) < 6+16 {
		return nil, fmt.Errorf("has: septentrio row has %d fields, want at least %d", len(fields), 6+16)
	}

	base := 10
	if s.Format == FormatHex {
		base = 16
	}

	atoi := func(tok string) (int64, error) {
		tok = strings.TrimPrefix(strings.TrimPrefix(tok, "0x"), "0X")
		return strconv.ParseInt(tok, base, 64)
	}
	atou := func(tok string) (uint64, error) {
		tok = strings.TrimPrefix(strings.TrimPrefix(tok, "0x"), "0X")
		return strconv.ParseUint(tok, base, 64)
	}

	tow, err := atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("has: bad TOW %q: %w", fields[0], err)
	}
	wn, err := atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("has: bad WNc %q: %w", fields[1], err)
	}
	svid, err := atoi(fields[2])
	if err != nil {
		return nil, fmt.Errorf("has: bad SVID %q: %w", fields[2], err)
	}
	crcRaw, err := atoi(fields[3])
	if err != nil {
		return nil, fmt.Errorf("has: bad CRCPassed %q: %w", fields[3], err)
	}
	sigType, err := atoi(fields[5])
	if err != nil {
		return nil, fmt.Errorf("has: bad signalType %q: %w", fields[5], err)
	}

	row := &septentrioRow{
		tow:        int(tow),
		weekNumber: int(wn),
		svid:       int(svid),
		crcPassed:  crcRaw != 0,
		signalType: int(sigType),
	}
	for i := 0; i < 16; i++ {
		w, err := atou(fields[6+i])
		if err != nil {
			return nil, fmt.Errorf("has: bad word[%d] %q: %w", i, fields[6+i], err)
		}
		row.words[i] = uint32(w)
	}

	if !s.Interpreted {
		row.tow /= 1000
		row.svid -= 70
	}
	return row, nil
}

func (s *Septentrio) nextRow() (*septentrioRow, error) {
	if s.pending != nil {
		row := s.pending
		s.pending = nil
		return row, nil
	}
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		row, err := s.parseRow(line)
		if err != nil {
			return nil, err
		}
		return row, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Next groups consecutive rows sharing the same TOW into a single Epoch,
// matching process_cnav.py's per-TOW grouping of the capture file.
func (s *Septentrio) Next() (has.Epoch, error) {
	if s.done {
		return has.Epoch{}, io.EOF
	}

	first, err := s.nextRow()
	if err != nil {
		s.done = true
		return has.Epoch{}, err
	}

	epoch := has.Epoch{TOW: first.tow, WeekNumber: first.weekNumber}
	epoch.Pages = append(epoch.Pages, has.RawPage{CRCPassed: first.crcPassed, Words: first.words})

	for {
		row, err := s.nextRow()
		if err == io.EOF {
			s.done = true
			break
		}
		if err != nil {
			return has.Epoch{}, err
		}
		if row.tow != first.tow {
			s.pending = row
			break
		}
		epoch.Pages = append(epoch.Pages, has.RawPage{CRCPassed: row.crcPassed, Words: row.words})
	}
	return epoch, nil
}
