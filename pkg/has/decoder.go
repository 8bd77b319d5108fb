package has

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultLimitAge is the epoch-age ceiling after which an incomplete
	// assembler is evicted.
	DefaultLimitAge = 120
	// DefaultMaxAssemblers bounds the live assembler table to guard
	// against pathological input growing it without limit.
	DefaultMaxAssemblers = 64
)

type assemblerKey struct {
	MType, ID, Size int
}

// Epoch is one receiver sample: a time-of-week tag plus the raw page
// blocks observed during it.
type Epoch struct {
	TOW        int
	WeekNumber int
	Pages      []RawPage
}

// MT1Header is the decoded 32-bit MT1 message header.
type MT1Header struct {
	ToH          int
	Mask         bool
	OrbitCorr    bool
	ClockFullSet bool
	ClockSubset  bool
	CodeBias     bool
	PhaseBias    bool
	MaskID       int
	IODSetID     int
}

// InterpretMT1Header extracts the nine named fields of an MT1 header from
// its first 4 bytes, MSB-first.
func InterpretMT1Header(b []byte) (MT1Header, error) {
	if len(b) < 4 {
		return MT1Header{}, fmt.Errorf("%w: mt1 header needs 4 bytes", ErrBitOverrun)
	}
	cur := &Cursor{}
	toh, err := ReadBits(b, cur, 12)
	if err != nil {
		return MT1Header{}, err
	}
	maskBit, err := ReadBits(b, cur, 1)
	if err != nil {
		return MT1Header{}, err
	}
	orbitBit, err := ReadBits(b, cur, 1)
	if err != nil {
		return MT1Header{}, err
	}
	clockFullBit, err := ReadBits(b, cur, 1)
	if err != nil {
		return MT1Header{}, err
	}
	clockSubsetBit, err := ReadBits(b, cur, 1)
	if err != nil {
		return MT1Header{}, err
	}
	codeBiasBit, err := ReadBits(b, cur, 1)
	if err != nil {
		return MT1Header{}, err
	}
	phaseBiasBit, err := ReadBits(b, cur, 1)
	if err != nil {
		return MT1Header{}, err
	}
	if _, err := ReadBits(b, cur, 2); err != nil { // reserved
		return MT1Header{}, err
	}
	maskID, err := ReadBits(b, cur, 5)
	if err != nil {
		return MT1Header{}, err
	}
	iodSetID, err := ReadBits(b, cur, 7)
	if err != nil {
		return MT1Header{}, err
	}

	return MT1Header{
		ToH:          int(toh),
		Mask:         maskBit == 1,
		OrbitCorr:    orbitBit == 1,
		ClockFullSet: clockFullBit == 1,
		ClockSubset:  clockSubsetBit == 1,
		CodeBias:     codeBiasBit == 1,
		PhaseBias:    phaseBiasBit == 1,
		MaskID:       int(maskID),
		IODSetID:     int(iodSetID),
	}, nil
}

// Decoder owns one HAS decoding session: in-flight message assemblers,
// the retained masks and the orbit-to-clock IOD table. It is not safe for
// concurrent use; run one Decoder per input stream.
type Decoder struct {
	logger logrus.FieldLogger

	pageIDOffset  int
	limitAge      int
	maxAssemblers int

	order      []assemblerKey
	assemblers map[assemblerKey]*Message

	masks []*Mask
	iods  map[iodKey]int
}

// NewDecoder builds a Decoder. A nil logger falls back to logrus's
// standard logger. pageIDOffset selects between the 1-based and 0-based
// page-id conventions a given ICD revision uses.
func NewDecoder(logger logrus.FieldLogger, pageIDOffset int) *Decoder {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Decoder{
		logger:        logger,
		pageIDOffset:  pageIDOffset,
		limitAge:      DefaultLimitAge,
		maxAssemblers: DefaultMaxAssemblers,
		assemblers:    make(map[assemblerKey]*Message),
		iods:          make(map[iodKey]int),
	}
}

func (d *Decoder) SetLimitAge(n int)      { d.limitAge = n }
func (d *Decoder) SetMaxAssemblers(n int) { d.maxAssemblers = n }

func (d *Decoder) admit(key assemblerKey, msg *Message) {
	if len(d.assemblers) >= d.maxAssemblers && len(d.order) > 0 {
		oldest := d.order[0]
		d.order = d.order[1:]
		delete(d.assemblers, oldest)
		d.logger.WithFields(logrus.Fields{
			"mtype": oldest.MType, "id": oldest.ID, "size": oldest.Size,
		}).Warn("has: assembler table full, dropped oldest")
	}
	d.assemblers[key] = msg
	d.order = append(d.order, key)
}

func (d *Decoder) forgetOrder(key assemblerKey) {
	for i, k := range d.order {
		if k == key {
			d.order = append(d.order[:i], d.order[i+1:]...)
			return
		}
	}
}

func (d *Decoder) applyPages(mtype, id, size int, pages []Page) {
	key := assemblerKey{mtype, id, size}
	msg, ok := d.assemblers[key]
	if !ok {
		msg = NewMessage(mtype, id, size)
		d.admit(key, msg)
	}
	for _, p := range pages {
		msg.AddPage(p.PageID, p.Bytes)
	}
}

func (d *Decoder) ageExcept(touched map[assemblerKey]bool) {
	for k, m := range d.assemblers {
		if !touched[k] {
			m.IncreaseAge()
		}
	}
}

func (d *Decoder) evictStale() {
	for k, m := range d.assemblers {
		if m.IsOld(d.limitAge) {
			delete(d.assemblers, k)
			d.forgetOrder(k)
			d.logger.WithFields(logrus.Fields{
				"mtype": k.MType, "id": k.ID, "size": k.Size,
			}).Warn(ErrIncompleteExpired.Error())
		}
	}
}

// drainCompleted removes and decodes every assembler that has become
// COMPLETE, in the decoder's insertion order, and returns each one's
// plaintext bytes. RS decode failures are logged and that assembler is
// simply dropped; the decoder state otherwise stays intact.
func (d *Decoder) drainCompleted() [][]byte {
	var out [][]byte
	for _, k := range append([]assemblerKey(nil), d.order...) {
		msg, ok := d.assemblers[k]
		if !ok || !msg.Complete() {
			continue
		}
		delete(d.assemblers, k)
		d.forgetOrder(k)

		bytes, err := msg.Decode()
		if err != nil {
			d.logger.WithError(err).Warn("has: rs decode failed")
			continue
		}
		out = append(out, bytes)
	}
	return out
}

// Update is the component-F single-key entry point: add pages for one
// (mtype,id,size) key, age every other assembler, evict stale ones and
// return the plaintext of every message that completed as a result.
func (d *Decoder) Update(pages []Page, mtype, id, size int) (decoded [][]byte, err error) {
	d.applyPages(mtype, id, size, pages)
	d.ageExcept(map[assemblerKey]bool{{mtype, id, size}: true})
	d.evictStale()
	return d.drainCompleted(), nil
}

// ProcessEpoch implements the enumerate/apply/sweep/drain orchestration:
// group the epoch's admitted pages by routing key, apply each group
// before any aging happens, sweep once, then interpret every message that
// completed as a result.
func (d *Decoder) ProcessEpoch(epoch Epoch) ([]Correction, error) {
	groups := make(map[assemblerKey][]Page)
	var keyOrder []assemblerKey

	for _, raw := range epoch.Pages {
		page, mtype, id, size, err := NewPage(raw, d.pageIDOffset)
		if err != nil {
			if IsTransient(err) {
				d.logger.WithError(err).Debug("has: page rejected")
				continue
			}
			return nil, err
		}
		if page.PageID < 0 || page.PageID >= rsN {
			d.logger.WithField("page_id", page.PageID).Warn("has: page id out of range, dropped")
			continue
		}
		key := assemblerKey{mtype, id, size}
		if _, seen := groups[key]; !seen {
			keyOrder = append(keyOrder, key)
		}
		groups[key] = append(groups[key], page)
	}

	touched := make(map[assemblerKey]bool, len(keyOrder))
	for _, k := range keyOrder {
		touched[k] = true
		d.applyPages(k.MType, k.ID, k.Size, groups[k])
	}
	d.ageExcept(touched)
	d.evictStale()
	completed := d.drainCompleted()

	var out []Correction
	for _, msgBytes := range completed {
		corrs, err := d.interpretMT1(epoch.TOW, msgBytes)
		if err != nil {
			d.logger.WithError(err).Warn("has: mt1 interpretation failed")
			continue
		}
		out = append(out, corrs...)
	}
	return out, nil
}

// interpretMT1 dispatches the header-gated correction sub-parsers against
// a freshly-decoded MT1 payload. A mask-parse failure aborts the whole
// message (every later block depends on the mask set) and leaves the
// decoder's previously retained masks untouched. Any other sub-parser
// failure aborts only that one block; parsing continues with the next
// header-flagged block, per the error-handling policy.
func (d *Decoder) interpretMT1(tow int, msgBytes []byte) ([]Correction, error) {
	if len(msgBytes) < 4 {
		return nil, fmt.Errorf("%w: mt1 message shorter than header", ErrBitOverrun)
	}
	header, err := InterpretMT1Header(msgBytes[:4])
	if err != nil {
		return nil, err
	}
	body := msgBytes[4:]
	cur := &Cursor{}
	info := epochInfo{tow: tow, toh: header.ToH, iod: header.IODSetID}

	if header.Mask {
		masks, err := parseMasks(body, cur)
		if err != nil {
			d.logger.WithError(err).Warn("has: mask parsing failed, message aborted, prior masks retained")
			return nil, nil
		}
		d.masks = masks
	}
	if d.masks == nil {
		return nil, nil
	}

	var out []Correction

	if header.OrbitCorr {
		d.iods = make(map[iodKey]int)
		corrs, err := parseOrbitCorrections(body, cur, d.masks, d.iods, info)
		if err != nil {
			d.logger.WithError(err).Warn("has: orbit corrections aborted")
		} else {
			out = append(out, corrs...)
		}
	}
	if header.ClockFullSet {
		corrs, err := parseClockFullCorrections(body, cur, d.masks, d.iods, info)
		if err != nil {
			d.logger.WithError(err).Warn("has: clock full-set corrections aborted")
		} else {
			out = append(out, corrs...)
		}
	}
	if header.ClockSubset {
		corrs, err := parseClockSubsetCorrections(body, cur, d.masks, d.iods, info)
		if err != nil {
			d.logger.WithError(err).Warn("has: clock subset corrections aborted")
		} else {
			out = append(out, corrs...)
		}
	}
	if header.CodeBias {
		corrs, err := parseCodeBiasCorrections(body, cur, d.masks, d.iods, info)
		if err != nil {
			d.logger.WithError(err).Warn("has: code bias corrections aborted")
		} else {
			out = append(out, corrs...)
		}
	}
	if header.PhaseBias {
		corrs, err := parsePhaseBiasCorrections(body, cur, d.masks, d.iods, info)
		if err != nil {
			d.logger.WithError(err).Warn("has: phase bias corrections aborted")
		} else {
			out = append(out, corrs...)
		}
	}
	return out, nil
}
