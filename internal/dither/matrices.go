package dither

// kernel holds the weight table for an error-diffusion algorithm. The
// current pixel is the right-most zero in the top row; offsets are
// relative to it. Ported from the classic published tables.
type kernel [][]float64

var (
	floydSteinberg = kernel{
		{0, 0, 7.0 / 16},
		{3.0 / 16, 5.0 / 16, 1.0 / 16},
	}

	jarvisJudiceNinke = kernel{
		{0, 0, 0, 7.0 / 48, 5.0 / 48},
		{3.0 / 48, 5.0 / 48, 7.0 / 48, 5.0 / 48, 3.0 / 48},
		{1.0 / 48, 3.0 / 48, 5.0 / 48, 3.0 / 48, 1.0 / 48},
	}

	stucki = kernel{
		{0, 0, 0, 8.0 / 42, 4.0 / 42},
		{2.0 / 42, 4.0 / 42, 8.0 / 42, 4.0 / 42, 2.0 / 42},
		{1.0 / 42, 2.0 / 42, 4.0 / 42, 2.0 / 42, 1.0 / 42},
	}

	burkes = kernel{
		{0, 0, 0, 8.0 / 32, 4.0 / 32},
		{2.0 / 32, 4.0 / 32, 8.0 / 32, 4.0 / 32, 2.0 / 32},
	}

	sierra3 = kernel{
		{0, 0, 0, 5.0 / 32, 3.0 / 32},
		{2.0 / 32, 4.0 / 32, 5.0 / 32, 4.0 / 32, 2.0 / 32},
		{0, 2.0 / 32, 3.0 / 32, 2.0 / 32, 0},
	}

	sierra2 = kernel{
		{0, 0, 0, 4.0 / 16, 3.0 / 16},
		{1.0 / 16, 2.0 / 16, 3.0 / 16, 2.0 / 16, 1.0 / 16},
	}

	sierraLite = kernel{
		{0, 0, 2.0 / 4},
		{1.0 / 4, 1.0 / 4, 0},
	}

	atkinson = kernel{
		{0, 0, 1.0 / 8, 1.0 / 8},
		{1.0 / 8, 1.0 / 8, 1.0 / 8, 0},
		{0, 1.0 / 8, 0, 0},
	}

	// reducedAtkinson halves Atkinson's four 1/8 taps to four 1/16 taps, a
	// lighter variant used by several e-ink dithering tools.
	reducedAtkinson = kernel{
		{0, 0, 1.0 / 16, 1.0 / 16},
		{1.0 / 16, 1.0 / 16, 1.0 / 16, 0},
		{0, 1.0 / 16, 0, 0},
	}
)

// currentPixel returns the column index of the current pixel in row 0: the
// right-most zero before the first nonzero weight.
func (k kernel) currentPixel() int {
	for i, v := range k[0] {
		if v != 0 {
			return i - 1
		}
	}
	return len(k[0]) / 2
}

// bayerMatrix generates an n x n (n a power of two) ordered-dither
// threshold matrix by bit-interleaving x and y, normalized to [0,1). This
// is the square-matrix case of the general bit-math construction described at
// https://bisqwit.iki.fi/story/howto/dither/jy/#Appendix%202ThresholdMatrix
func bayerMatrix(n int) [][]float64 {
	bits := log2(n)
	m := make([][]float64, n)
	max := float64(n * n)
	for y := 0; y < n; y++ {
		m[y] = make([]float64, n)
		for x := 0; x < n; x++ {
			var v, xmask, ymask uint
			xmask, ymask = uint(bits), uint(bits)
			xc, yc := uint(x), uint(y)
			for bit := uint(0); bit < uint(2*bits); {
				ymask--
				v |= ((yc >> ymask) & 1) << bit
				bit++
				xmask--
				v |= ((xc >> xmask) & 1) << bit
				bit++
			}
			m[y][x] = float64(v) / max
		}
	}
	return m
}

func log2(n int) int {
	bits := 0
	for v := n; v > 1; v >>= 1 {
		bits++
	}
	return bits
}
