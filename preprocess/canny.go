// edge-detector - extract structural edges from camera frames
//  Copyright (C) 2026, The Cacophony Project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package preprocess

import (
	"image"
	"math"
)

// Gradient sector boundaries for non-maximum suppression.
var (
	tan22 = math.Tan(math.Pi / 8)
	tan67 = math.Tan(3 * math.Pi / 8)
)

// Pixel classes after non-maximum suppression.
const (
	classNone uint8 = iota
	classWeak
	classStrong
)

// Canny returns the edge map of src as width*height bytes, 255 where an
// edge was found and 0 elsewhere. Magnitudes at or above high are edges,
// those below low are discarded and the rest are kept only when connected
// to an edge through other kept pixels.
func Canny(src *image.Gray, low, high int, l2 bool) []byte {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	gx, gy := sobel(src)
	mag := magnitude(gx, gy, l2)
	classes := suppress(mag, gx, gy, w, h, float64(low), float64(high))
	return hysteresis(classes, w, h)
}

// sobel returns the 3x3 Sobel derivatives of src, sampling past the edges
// by repeating the border pixels.
func sobel(src *image.Gray) (gx, gy []int32) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	gx = make([]int32, w*h)
	gy = make([]int32, w*h)

	at := func(x, y int) int32 {
		x = borderIndex(x, w, BorderReplicate)
		y = borderIndex(y, h, BorderReplicate)
		return int32(src.Pix[y*src.Stride+x])
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			tl, t, tr := at(x-1, y-1), at(x, y-1), at(x+1, y-1)
			l, r := at(x-1, y), at(x+1, y)
			bl, b, br := at(x-1, y+1), at(x, y+1), at(x+1, y+1)

			gx[y*w+x] = (tr + 2*r + br) - (tl + 2*l + bl)
			gy[y*w+x] = (bl + 2*b + br) - (tl + 2*t + tr)
		}
	}
	return gx, gy
}

func magnitude(gx, gy []int32, l2 bool) []float64 {
	mag := make([]float64, len(gx))
	for i := range mag {
		dx, dy := float64(gx[i]), float64(gy[i])
		if l2 {
			mag[i] = math.Sqrt(dx*dx + dy*dy)
		} else {
			mag[i] = math.Abs(dx) + math.Abs(dy)
		}
	}
	return mag
}

// suppress thins the gradient magnitude to local maxima along the gradient
// direction and classifies what remains against the two thresholds.
// Along the axes the neighbour before the pixel must be strictly smaller
// and the one after it may be equal, so a plateau two pixels wide yields a
// one pixel line. Along the diagonals both neighbours must be strictly
// smaller, matching OpenCV.
func suppress(mag []float64, gx, gy []int32, w, h int, low, high float64) []uint8 {
	classes := make([]uint8, w*h)

	at := func(x, y int) float64 {
		if x < 0 || x >= w || y < 0 || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			m := mag[i]
			if m < low {
				continue
			}

			ax, ay := math.Abs(float64(gx[i])), math.Abs(float64(gy[i]))
			var before, after float64
			diagonal := false
			switch {
			case ay <= ax*tan22:
				before, after = at(x-1, y), at(x+1, y)
			case ay > ax*tan67:
				before, after = at(x, y-1), at(x, y+1)
			case (gx[i] < 0) != (gy[i] < 0):
				before, after = at(x+1, y-1), at(x-1, y+1)
				diagonal = true
			default:
				before, after = at(x-1, y-1), at(x+1, y+1)
				diagonal = true
			}
			if m <= before || m < after || (diagonal && m == after) {
				continue
			}

			if m >= high {
				classes[i] = classStrong
			} else {
				classes[i] = classWeak
			}
		}
	}
	return classes
}

// hysteresis promotes weak pixels 8-connected to strong ones, following
// chains of weak pixels of any length and direction.
func hysteresis(classes []uint8, w, h int) []byte {
	edges := make([]byte, w*h)
	stack := make([]int, 0, 64)
	for i, c := range classes {
		if c == classStrong {
			edges[i] = 255
			stack = append(stack, i)
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w

		for dy := -1; dy <= 1; dy++ {
			ny := y + dy
			if ny < 0 || ny >= h {
				continue
			}
			for dx := -1; dx <= 1; dx++ {
				nx := x + dx
				if nx < 0 || nx >= w {
					continue
				}
				j := ny*w + nx
				if classes[j] == classWeak && edges[j] == 0 {
					edges[j] = 255
					stack = append(stack, j)
				}
			}
		}
	}
	return edges
}
