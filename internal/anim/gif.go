// Package anim assembles rendered frames into a GIF animation.
package anim

import (
	"bufio"
	"fmt"
	"image"
	"image/gif"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/san-kum/psiviz/internal/render"
	"github.com/san-kum/psiviz/internal/wave"
)

// DefaultDelay is the display time of every frame.
const DefaultDelay = 100 * time.Millisecond

// Animation builds the GIF container for frames, in the order given.
// Delays are stored in hundredths of a second with a minimum of one.
func Animation(frames []render.Frame, delay time.Duration) (*gif.GIF, error) {
	if len(frames) == 0 {
		return nil, wave.ErrEmptyFrameSequence
	}

	cs := int((delay + 5*time.Millisecond) / (10 * time.Millisecond))
	if cs < 1 {
		cs = 1
	}

	anim := &gif.GIF{
		Image:     make([]*image.Paletted, 0, len(frames)),
		Delay:     make([]int, 0, len(frames)),
		LoopCount: 0,
	}
	for i, f := range frames {
		if f.Image == nil {
			return nil, fmt.Errorf("frame %d has no image", i)
		}
		anim.Image = append(anim.Image, f.Image)
		anim.Delay = append(anim.Delay, cs)
	}
	return anim, nil
}

// Encode writes frames as a GIF to w.
func Encode(w io.Writer, frames []render.Frame, delay time.Duration) error {
	anim, err := Animation(frames, delay)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(w, anim); err != nil {
		return fmt.Errorf("%w: %v", wave.ErrWriteFailure, err)
	}
	return nil
}

// Save writes frames to path. The file appears only once it is complete; on
// failure nothing is left at path.
func Save(path string, frames []render.Frame, delay time.Duration) error {
	anim, err := Animation(frames, delay)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %v", wave.ErrWriteFailure, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := bufio.NewWriter(tmp)
	if err := gif.EncodeAll(w, anim); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: encode %s: %v", wave.ErrWriteFailure, path, err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %s: %v", wave.ErrWriteFailure, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %s: %v", wave.ErrWriteFailure, path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("%w: %s: %v", wave.ErrWriteFailure, path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: %s: %v", wave.ErrWriteFailure, path, err)
	}
	return nil
}
