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
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrInvalidDimensions is returned when a frame buffer doesn't match the
// dimensions given with it.
var ErrInvalidDimensions = errors.New("invalid input dimensions")

// FrameSize returns the number of bytes in a semi-planar frame: a full
// luma plane followed by a half height interleaved chroma plane. The result
// is only meaningful for dimensions accepted by ValidDimensions.
func FrameSize(width, height int) int {
	return width * (height + height/2)
}

// ValidDimensions reports whether width and height are positive and small
// enough for FrameSize not to overflow.
func ValidDimensions(width, height int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	if height/2 > math.MaxInt-height {
		return false
	}
	return width <= math.MaxInt/(height+height/2)
}

// DecodeLuma returns the luma plane of a semi-planar frame as a new
// grayscale image. The chroma plane is ignored and frame is not modified
// or referenced after returning.
func DecodeLuma(frame []byte, width, height int) (*image.Gray, error) {
	if err := checkDimensions(frame, width, height); err != nil {
		return nil, err
	}
	img := image.NewGray(image.Rect(0, 0, width, height))
	copy(img.Pix, frame[:width*height])
	return img, nil
}

func checkDimensions(frame []byte, width, height int) error {
	if !ValidDimensions(width, height) {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if expected := FrameSize(width, height); len(frame) != expected {
		return fmt.Errorf("%w: %d bytes for %dx%d frame, expected %d",
			ErrInvalidDimensions, len(frame), width, height, expected)
	}
	return nil
}
