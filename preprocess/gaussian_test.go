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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultKernel(t *testing.T) {
	k := GaussianKernel(DefaultKernelSize, DefaultSigma)
	assert.Len(t, k, 5)

	var sum float64
	for _, v := range k {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	assert.InDelta(t, 0.40262, k[2], 1e-5)
	assert.InDelta(t, 0.24420, k[1], 1e-5)
	assert.InDelta(t, 0.05449, k[0], 1e-5)
	assert.Equal(t, k[0], k[4])
	assert.Equal(t, k[1], k[3])
}

func TestBorderIndex(t *testing.T) {
	// dcb|abcd|cba
	assert.Equal(t, []int{2, 1, 0, 1, 2, 3, 2, 1}, indices(-2, 6, 4, BorderReflect101))
	// aaa|abcd|ddd
	assert.Equal(t, []int{0, 0, 0, 1, 2, 3, 3, 3}, indices(-2, 6, 4, BorderReplicate))
	assert.Equal(t, []int{0, 0, 0}, indices(-1, 2, 1, BorderReflect101))
	assert.Equal(t, []int{0, 1, 0, 1, 0}, indices(-2, 3, 2, BorderReflect101))
}

func indices(from, to, n int, border Border) []int {
	var out []int
	for i := from; i < to; i++ {
		out = append(out, borderIndex(i, n, border))
	}
	return out
}

func TestBlurKeepsUniformImage(t *testing.T) {
	for _, border := range []Border{BorderReflect101, BorderReplicate} {
		img := image.NewGray(image.Rect(0, 0, 9, 7))
		for i := range img.Pix {
			img.Pix[i] = 77
		}
		out := GaussianBlur(img, 5, 1.0, border)
		for _, v := range out.Pix {
			assert.Equal(t, uint8(77), v)
		}
	}
}

func TestBlurDoesNotModifySource(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 5, 5))
	img.Pix[12] = 255
	original := append([]uint8(nil), img.Pix...)

	out := GaussianBlur(img, 5, 1.0, BorderReflect101)
	assert.Equal(t, original, img.Pix)

	// A single bright pixel spreads symmetrically, peaking at the centre.
	assert.Equal(t, out.Pix[11], out.Pix[13])
	assert.Equal(t, out.Pix[7], out.Pix[17])
	assert.Greater(t, out.Pix[12], out.Pix[11])
	assert.Equal(t, uint8(41), out.Pix[12]) // 255 * 0.40262^2
}

func TestBlurHandlesSubImages(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	sub := img.SubImage(image.Rect(2, 2, 6, 6)).(*image.Gray)

	copied := image.NewGray(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			copied.Pix[y*4+x] = sub.GrayAt(x+2, y+2).Y
		}
	}

	assert.Equal(t,
		GaussianBlur(copied, 5, 1.0, BorderReplicate).Pix,
		GaussianBlur(sub, 5, 1.0, BorderReplicate).Pix)
}
