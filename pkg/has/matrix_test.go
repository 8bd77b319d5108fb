package has

import "testing"

func TestEncodingMatrixSystematicTail(t *testing.T) {
	h, err := EncodingMatrix()
	if err != nil {
		t.Fatalf("EncodingMatrix: %v", err)
	}
	for i := 0; i < rsK; i++ {
		row := h[rsN-rsK+i]
		for c := 0; c < rsK; c++ {
			want := byte(0)
			if c == i {
				want = 1
			}
			if row[c] != want {
				t.Fatalf("row %d col %d = %d, want %d", rsN-rsK+i, c, row[c], want)
			}
		}
	}
}

func TestInvertMatrixGF256RoundTrip(t *testing.T) {
	m := [][]byte{
		{1, 2, 3},
		{4, 5, 6},
		{7, 8, 10},
	}
	inv, err := invertMatrixGF256(m)
	if err != nil {
		t.Fatalf("invert: %v", err)
	}
	// m @ inv should be the identity over GF(256).
	for i := range m {
		for j := range m {
			var acc byte
			for k := range m {
				acc = gf256Add(acc, gf256Mul(m[i][k], inv[k][j]))
			}
			want := byte(0)
			if i == j {
				want = 1
			}
			if acc != want {
				t.Fatalf("(m@inv)[%d][%d] = %d, want %d", i, j, acc, want)
			}
		}
	}
}

func TestInvertMatrixGF256Singular(t *testing.T) {
	m := [][]byte{
		{1, 1},
		{1, 1},
	}
	if _, err := invertMatrixGF256(m); err == nil {
		t.Fatal("expected singular matrix error")
	}
}

func TestEncodingMatrixSelectedRowsInvertible(t *testing.T) {
	h, err := EncodingMatrix()
	if err != nil {
		t.Fatalf("EncodingMatrix: %v", err)
	}
	size := 8
	ids := []int{0, 1, 2, 3, 4, 5, 6, 7}
	hr := make([][]byte, size)
	for i, id := range ids {
		row := make([]byte, size)
		copy(row, h[id][:size])
		hr[i] = row
	}
	if _, err := invertMatrixGF256(hr); err != nil {
		t.Fatalf("expected H[0:8,0:8] invertible, got: %v", err)
	}
}
