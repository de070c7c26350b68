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

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// GaussianKernel returns a normalised 1D Gaussian kernel of ksize taps
// sampled at integer offsets from the centre.
func GaussianKernel(ksize int, sigma float64) []float64 {
	dist := distuv.Normal{Mu: 0, Sigma: sigma}
	radius := ksize / 2
	kernel := make([]float64, ksize)
	for i := range kernel {
		kernel[i] = dist.Prob(float64(i - radius))
	}
	floats.Scale(1/floats.Sum(kernel), kernel)
	return kernel
}

// GaussianBlur smooths src with a ksize x ksize Gaussian, returning a new image.
func GaussianBlur(src *image.Gray, ksize int, sigma float64, border Border) *image.Gray {
	return blur(src, GaussianKernel(ksize, sigma), border)
}

// blur applies kernel separably, rows first. The intermediate result is
// kept at full precision so only the final pass is rounded.
func blur(src *image.Gray, kernel []float64, border Border) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	radius := len(kernel) / 2

	rows := make([]float64, w*h)
	for y := 0; y < h; y++ {
		line := src.Pix[y*src.Stride : y*src.Stride+w]
		for x := 0; x < w; x++ {
			var sum float64
			for k, weight := range kernel {
				sum += weight * float64(line[borderIndex(x+k-radius, w, border)])
			}
			rows[y*w+x] = sum
		}
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for k, weight := range kernel {
				sum += weight * rows[borderIndex(y+k-radius, h, border)*w+x]
			}
			out.Pix[y*out.Stride+x] = clampUint8(sum)
		}
	}
	return out
}

// borderIndex maps i onto [0, n) according to the border mode.
func borderIndex(i, n int, border Border) int {
	if i >= 0 && i < n {
		return i
	}
	if n == 1 {
		return 0
	}
	if border == BorderReplicate {
		if i < 0 {
			return 0
		}
		return n - 1
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}

func clampUint8(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
