package dither

import (
	"sort"
	"sync"
)

// blueNoise256 returns a 256x256 ordered-dither threshold matrix, normalized
// to [0,1). No pre-computed table ships with the package: the matrix is
// derived deterministically on first use (no wall-clock, no RNG) by ranking
// every cell by a fixed bit-mixing hash of its coordinates, and cached for
// the life of the process. The ranking is hash order only, not an optimized
// (void-and-cluster) blue-noise texture.
var (
	blueNoiseOnce sync.Once
	blueNoiseData [][]float64
)

type blueNoiseCell struct {
	x, y int
	rank uint64
}

func blueNoise256() [][]float64 {
	blueNoiseOnce.Do(func() {
		const n = 256
		cells := make([]blueNoiseCell, 0, n*n)
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				cells = append(cells, blueNoiseCell{x, y, mix64(uint64(x), uint64(y))})
			}
		}
		sort.Slice(cells, func(i, j int) bool { return cells[i].rank < cells[j].rank })

		blueNoiseData = make([][]float64, n)
		for y := range blueNoiseData {
			blueNoiseData[y] = make([]float64, n)
		}
		total := float64(len(cells))
		for i, c := range cells {
			blueNoiseData[c.y][c.x] = float64(i) / total
		}
	})
	return blueNoiseData
}

// mix64 is a fixed, deterministic bit-mixing hash (splitmix64-style) used
// only to derive a stable pseudo-random ranking, never real randomness.
func mix64(x, y uint64) uint64 {
	z := x*0x9E3779B97F4A7C15 + y*0xBF58476D1CE4E5B9
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}
