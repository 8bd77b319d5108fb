package has

// GF(2^8) arithmetic under the primitive polynomial x^8+x^7+x^2+x+1
// (reduction constant 0x87) with primitive element alpha = 0x02. Tables are
// built once at package init and sized 510 so gf256Mul never needs a modulo
// on the exponent sum.

const gf256ReductionPoly = 0x87

var gf256ExpTable [510]byte
var gf256LogTable [256]int

func init() {
	x := byte(1)
	for i := 0; i < 255; i++ {
		gf256ExpTable[i] = x
		gf256LogTable[x] = i
		hi := x&0x80 != 0
		x <<= 1
		if hi {
			x ^= gf256ReductionPoly
		}
	}
	for i := 255; i < 510; i++ {
		gf256ExpTable[i] = gf256ExpTable[i-255]
	}
}

func gf256Add(a, b byte) byte { return a ^ b }

func gf256Mul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return gf256ExpTable[gf256LogTable[a]+gf256LogTable[b]]
}

func gf256Pow(a byte, n int) byte {
	if a == 0 {
		if n == 0 {
			return 1
		}
		return 0
	}
	e := (gf256LogTable[a] * n) % 255
	if e < 0 {
		e += 255
	}
	return gf256ExpTable[e]
}

func gf256Inv(a byte) byte {
	if a == 0 {
		return 0
	}
	return gf256ExpTable[255-gf256LogTable[a]]
}

func gf256Div(a, b byte) byte {
	return gf256Mul(a, gf256Inv(b))
}
