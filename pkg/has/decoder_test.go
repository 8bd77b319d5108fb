package has

import "testing"

func TestInterpretMT1HeaderFieldLayout(t *testing.T) {
	// bits: ToH=12(0xABC), Mask=1, Orbit=0, ClockFull=1, ClockSubset=0,
	// CodeBias=1, PhaseBias=0, reserved=0, MaskID=5(0b10101), IOD=77.
	var header uint32
	header |= 0xABC << 20
	header |= 1 << 19 // mask
	header |= 0 << 18 // orbit
	header |= 1 << 17 // clock full
	header |= 0 << 16 // clock subset
	header |= 1 << 15 // code bias
	header |= 0 << 14 // phase bias
	header |= 0 << 12 // reserved
	header |= 21 << 7 // mask id
	header |= 77      // iod set id

	b := []byte{byte(header >> 24), byte(header >> 16), byte(header >> 8), byte(header)}
	h, err := InterpretMT1Header(b)
	if err != nil {
		t.Fatalf("InterpretMT1Header: %v", err)
	}
	if h.ToH != 0xABC || !h.Mask || h.OrbitCorr || !h.ClockFullSet || h.ClockSubset || !h.CodeBias || h.PhaseBias {
		t.Fatalf("flags mismatch: %+v", h)
	}
	if h.MaskID != 21 || h.IODSetID != 77 {
		t.Fatalf("MaskID/IODSetID mismatch: %+v", h)
	}
}

func buildMT1RawPages(t *testing.T, payload []byte, mtype, mid, size int, pageIDOffset int) []RawPage {
	t.Helper()
	h, err := EncodingMatrix()
	if err != nil {
		t.Fatalf("EncodingMatrix: %v", err)
	}
	if len(payload) != size*53 {
		t.Fatalf("payload length %d != size*53 (%d)", len(payload), size*53)
	}

	var raws []RawPage
	for pid := 0; pid < size; pid++ {
		var pageBytes [53]byte
		for c := 0; c < 53; c++ {
			var acc byte
			for k := 0; k < size; k++ {
				acc = gf256Add(acc, gf256Mul(h[pid][k], payload[k*53+c]))
			}
			pageBytes[c] = acc
		}

		headerVal := uint32(0)
		headerVal |= uint32(mtype&0x3) << 18
		headerVal |= uint32(mid&0x1F) << 13
		headerVal |= uint32((size-1)&0x1F) << 8
		headerVal |= uint32(pid+pageIDOffset) & 0xFF

		words := packWordsFromBody(headerVal, pageBytes)
		raws = append(raws, RawPage{CRCPassed: true, Words: words})
	}
	return raws
}

// packWordsFromBody is the exact inverse of extractPageBody/extractPageHeader,
// used only by tests to build synthetic CNAV word blocks from a known body.
func packWordsFromBody(header uint32, body [53]byte) [16]uint32 {
	var words [16]uint32
	words[0] = (header >> 6) & 0x3FFFF

	w1 := (header & 0x3F) << 26
	w1 |= uint32(body[0]) << 18
	w1 |= uint32(body[1]) << 10
	w1 |= uint32(body[2]) << 2
	// low 2 bits of word1 carry the top 2 bits of body[3].
	w1 |= uint32(body[3]) >> 6
	words[1] = w1

	for ii := 2; ii < 14; ii++ {
		idx := 3 + (ii-2)*4
		w := uint32(body[idx]&0x3F) << 26
		w |= uint32(body[idx+1]) << 18
		w |= uint32(body[idx+2]) << 10
		w |= uint32(body[idx+3]) << 2
		w |= uint32(body[idx+4]) >> 6
		words[ii] = w
	}
	w14 := uint32(body[51]&0x3F) << 26
	w14 |= uint32(body[52]) << 18
	words[14] = w14
	return words
}

func TestExtractPageBodyInverseOfPackWords(t *testing.T) {
	var body [53]byte
	for i := range body {
		body[i] = byte(i * 7)
	}
	words := packWordsFromBody(0, body)
	got := extractPageBody(words)
	if got != body {
		t.Fatalf("round-trip mismatch:\n got  %v\n want %v", got, body)
	}
}

func TestProcessEpochEndToEndNoBlocks(t *testing.T) {
	size := 2
	payload := make([]byte, size*53) // all-zero header: no blocks flagged

	raws := buildMT1RawPages(t, payload, 1, 3, size, 0)
	d := NewDecoder(nil, 0)
	epoch := Epoch{TOW: 12345, Pages: raws}

	corrs, err := d.ProcessEpoch(epoch)
	if err != nil {
		t.Fatalf("ProcessEpoch: %v", err)
	}
	if len(corrs) != 0 {
		t.Fatalf("expected no corrections for an all-zero-flags header, got %d", len(corrs))
	}
	if len(d.assemblers) != 0 {
		t.Fatalf("assembler should have drained after completion, got %d left", len(d.assemblers))
	}
}

// bodyBitWriter writes MSB-first bit fields into body starting at byte
// offset startByte, the same convention as bitWriter in corrections_test.go,
// but usable after a 4-byte MT1 header has already been placed in body.
func bodyBitWriter(body []byte, startByte int) func(val uint64, n int) {
	cur := &Cursor{Byte: startByte}
	return func(val uint64, n int) {
		for i := n - 1; i >= 0; i-- {
			bit := (val >> uint(i)) & 1
			shift := 7 - cur.Bit
			body[cur.Byte] |= byte(bit << uint(shift))
			cur.Bit++
			if cur.Bit == 8 {
				cur.Bit = 0
				cur.Byte++
			}
		}
	}
}

func putMT1Header(payload []byte, header uint32) {
	payload[0] = byte(header >> 24)
	payload[1] = byte(header >> 16)
	payload[2] = byte(header >> 8)
	payload[3] = byte(header)
}

// TestProcessEpochRetainedMaskAcrossMessages drives two independent MT1
// messages through one Decoder: the first carries only a Mask block (for
// Galileo, PRN 5, signal E6-B), the second carries only a ClockSubset block
// with no Mask bit set at all. The second message's subset mask can only be
// decoded against the mask retained in d.masks from the first message, so a
// correct ClockCorrection coming out of the second ProcessEpoch call proves
// masks survive across messages the way Testable Property 6 requires.
func TestProcessEpochRetainedMaskAcrossMessages(t *testing.T) {
	d := NewDecoder(nil, 0)

	// Message 1: Mask block only. gnss_id=2 (Galileo), sat_mask selects PRN
	// 5 (bit j=4, so value bit nbits-1-j = 35), sig_mask selects signal 13
	// (E6-B, bit j=12, so value bit nbits-1-j = 3).
	size1 := 1
	payload1 := make([]byte, size1*53)
	var header1 uint32
	header1 |= 1 << 19 // mask bit set, nothing else
	putMT1Header(payload1, header1)

	w1 := bodyBitWriter(payload1, 4)
	w1(1, 4)         // Nsys = 1
	w1(2, 4)          // gnss_id = Galileo
	w1(uint64(1)<<35, 40) // sat_mask: PRN 5 only
	w1(uint64(1)<<3, 16)  // sig_mask: signal 13 (E6-B) only
	w1(0, 1)          // cell_mask_flag = 0
	w1(0, 3)          // nav_message
	w1(0, 6)          // reserved after the systems loop

	raws1 := buildMT1RawPages(t, payload1, 1, 1, size1, 0)
	corrs1, err := d.ProcessEpoch(Epoch{TOW: 1000, Pages: raws1})
	if err != nil {
		t.Fatalf("ProcessEpoch (mask message): %v", err)
	}
	if len(corrs1) != 0 {
		t.Fatalf("expected no corrections from a mask-only message, got %d", len(corrs1))
	}
	if len(d.masks) != 1 || d.masks[0].GnssID != 2 || len(d.masks[0].PRNs) != 1 || d.masks[0].PRNs[0] != 5 {
		t.Fatalf("mask not retained as expected: %+v", d.masks)
	}

	// Message 2: ClockSubset block only, no Mask bit at all. It must be
	// routed entirely off the mask retained from message 1.
	size2 := 1
	payload2 := make([]byte, size2*53)
	var header2 uint32
	header2 |= 1 << 16 // clock subset bit set, nothing else
	putMT1Header(payload2, header2)

	w2 := bodyBitWriter(payload2, 4)
	w2(5, 4)  // validity index -> 60s
	w2(1, 4)  // nsys = 1
	w2(2, 4)  // gnss_id = Galileo, matching the retained mask
	w2(0, 2)  // multiplier_index - 1 -> multiplier 1
	w2(1, 1)  // subset_mask (1 bit, nprn=1): select PRN 5
	w2(40, 13) // clock delta, a real (non-sentinel) value

	raws2 := buildMT1RawPages(t, payload2, 1, 2, size2, 0)
	corrs2, err := d.ProcessEpoch(Epoch{TOW: 1001, Pages: raws2})
	if err != nil {
		t.Fatalf("ProcessEpoch (clock subset message): %v", err)
	}
	if len(corrs2) != 1 {
		t.Fatalf("expected exactly one clock correction routed via the retained mask, got %d: %+v", len(corrs2), corrs2)
	}
	c := corrs2[0].Clock
	if c == nil {
		t.Fatalf("expected a clock correction, got %+v", corrs2[0])
	}
	if c.GnssID != 2 || c.PRN != 5 {
		t.Fatalf("expected GnssID=2 PRN=5 from the retained mask, got %+v", c)
	}
	if c.Multiplier != 1 {
		t.Fatalf("expected multiplier 1, got %d", c.Multiplier)
	}
	if c.Status != ClockOK {
		t.Fatalf("expected a normal clock value, got status %v", c.Status)
	}
	if want := float64(TwosComplement(40, 13)) * 0.0025; c.DeltaClockC0 != want {
		t.Fatalf("DeltaClockC0 = %v, want %v", c.DeltaClockC0, want)
	}
}

func TestDecoderUpdateEvictsOldAssemblers(t *testing.T) {
	d := NewDecoder(nil, 0)
	d.SetLimitAge(2)

	_, err := d.Update([]Page{{PageID: 0}}, 1, 0, 3)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(d.assemblers) != 1 {
		t.Fatalf("expected 1 assembler, got %d", len(d.assemblers))
	}

	for i := 0; i < 3; i++ {
		_, err := d.Update(nil, 9, 9, 9) // touches a different, throwaway key
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	if _, ok := d.assemblers[assemblerKey{1, 0, 3}]; ok {
		t.Fatal("expected original assembler to be evicted after exceeding limit age")
	}
}

func TestDecoderAdmitDropsOldestOnOverflow(t *testing.T) {
	d := NewDecoder(nil, 0)
	d.SetMaxAssemblers(2)

	d.Update([]Page{{PageID: 0}}, 1, 0, 5)
	d.Update([]Page{{PageID: 0}}, 1, 1, 5)
	d.Update([]Page{{PageID: 0}}, 1, 2, 5)

	if len(d.assemblers) != 2 {
		t.Fatalf("expected table capped at 2, got %d", len(d.assemblers))
	}
	if _, ok := d.assemblers[assemblerKey{1, 0, 5}]; ok {
		t.Fatal("expected oldest assembler (id 0) to have been dropped")
	}
}
