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

package main

import (
	"errors"
	"image"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/TheCacophonyProject/edge-detector/preprocess"
	"github.com/TheCacophonyProject/edge-detector/processor"
)

const (
	snapshotName          = "edges.png"
	invertedSnapshotName  = "edges-inverted.png"
	allowedSnapshotPeriod = 500 * time.Millisecond
)

var (
	// previousSnapshotTimes is keyed by snapshot file name so each variant
	// is rate limited on its own.
	previousSnapshotTimes = map[string]time.Time{}
	snapshotMu            sync.Mutex
)

func newSnapshot(dir string, inverted bool) error {
	snapshotMu.Lock()
	defer snapshotMu.Unlock()

	filename := snapshotName
	if inverted {
		filename = invertedSnapshotName
	}
	if time.Since(previousSnapshotTimes[filename]) < allowedSnapshotPeriod {
		return nil
	}

	p := getProcessor()
	if p == nil {
		return errors.New("reading from camera has not started yet")
	}
	frame := p.GetRecentEdges()
	if frame == nil {
		return errors.New("no frames yet")
	}

	if err := saveEdgeImage(filepath.Join(dir, filename), frame, p.Width(), p.Height(), inverted); err != nil {
		return err
	}

	// the time will be changed only if the attempt is successful
	previousSnapshotTimes[filename] = time.Now()
	return nil
}

// saveEdgeImage writes an edge map as an image, with the format taken from
// the file extension. The file is replaced atomically.
func saveEdgeImage(filename string, frame *processor.EdgeFrame, width, height int, inverted bool) error {
	var img image.Image = preprocess.EdgeImage(frame.Edges, width, height)
	if inverted {
		img = imaging.Invert(img)
	}

	format, err := imaging.FormatFromFilename(filename)
	if err != nil {
		return err
	}
	tempName := filename + ".temp"
	out, err := os.Create(tempName)
	if err != nil {
		return err
	}
	if err := imaging.Encode(out, img, format); err != nil {
		out.Close()
		os.Remove(tempName)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tempName)
		return err
	}
	return os.Rename(tempName, filename)
}

func deleteSnapshot(dir string) {
	deleteSnapshotFile(dir, snapshotName)
	deleteSnapshotFile(dir, invertedSnapshotName)
}

func deleteSnapshotFile(dir, basename string) {
	if err := os.Remove(filepath.Join(dir, basename)); err != nil && !os.IsNotExist(err) {
		log.Printf("error deleting snapshot image: %v", err)
	}
}
