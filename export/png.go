// Package export encodes and decodes heightfields at the repository
// boundary: 16-bit and 8-bit grayscale PNG and raw little-endian float32.
package export

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"github.com/habib256/wilderness/heightfield"
	"github.com/habib256/wilderness/progress"
)

// SavePNG16 writes the field as a 16-bit grayscale PNG. The field is
// min-max rescaled to the full 16-bit range first.
func SavePNG16(f *heightfield.Field, path string, tr *progress.Tracker) error {
	tr.Start(progress.StageSaving, fmt.Sprintf("saving 16-bit PNG: %s", path))

	file, err := os.Create(path)
	if err != nil {
		tr.Fail(err)
		return err
	}
	defer file.Close()

	tr.Update(0.7, "encoding", nil)
	if err := WritePNG16(f, file); err != nil {
		tr.Fail(err)
		return err
	}
	tr.Update(1, "saved", nil)
	tr.Complete()
	return nil
}

// WritePNG16 encodes the field as a 16-bit grayscale PNG to w, min-max
// rescaled to the full 16-bit range.
func WritePNG16(f *heightfield.Field, w io.Writer) error {
	min, max := f.MinMax()
	span := max - min
	img := image.NewGray16(image.Rect(0, 0, f.Size, f.Size))
	for y := 0; y < f.Size; y++ {
		for x := 0; x < f.Size; x++ {
			v := f.At(x, y)
			if span > 0 {
				v = (v - min) / span
			}
			img.SetGray16(x, y, color.Gray16{Y: uint16(v * 65535)})
		}
	}
	return png.Encode(w, img)
}

// SavePNG8 writes the field as an 8-bit grayscale PNG preview.
func SavePNG8(f *heightfield.Field, path string, tr *progress.Tracker) error {
	tr.Start(progress.StageSaving, fmt.Sprintf("saving 8-bit PNG: %s", path))

	img := image.NewGray(image.Rect(0, 0, f.Size, f.Size))
	for y := 0; y < f.Size; y++ {
		for x := 0; x < f.Size; x++ {
			v := f.At(x, y)
			if v < 0 {
				v = 0
			} else if v > 1 {
				v = 1
			}
			img.SetGray(x, y, color.Gray{Y: uint8(v * 255)})
		}
	}
	if err := writePNG(path, img); err != nil {
		tr.Fail(err)
		return err
	}
	tr.Complete()
	return nil
}

// LoadPNG reads a square grayscale PNG into a field with values in [0,1].
// 16-bit and 8-bit inputs are both handled; other color models are
// converted through their gray equivalent.
func LoadPNG(path string) (*heightfield.Field, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("export: decoding %s: %w", path, err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != bounds.Dy() {
		return nil, fmt.Errorf("export: heightmap must be square, got %dx%d", bounds.Dx(), bounds.Dy())
	}

	f, err := heightfield.New(bounds.Dx())
	if err != nil {
		return nil, err
	}
	for y := 0; y < f.Size; y++ {
		for x := 0; x < f.Size; x++ {
			g := color.Gray16Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray16)
			f.Set(x, y, float64(g.Y)/65535)
		}
	}
	return f, nil
}

func writePNG(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return png.Encode(file, img)
}
