package export

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/habib256/wilderness/heightfield"
	"github.com/habib256/wilderness/progress"
)

// SaveRaw writes the field as row-major little-endian float32 values.
func SaveRaw(f *heightfield.Field, path string, tr *progress.Tracker) error {
	tr.Start(progress.StageSaving, fmt.Sprintf("saving raw float32: %s", path))

	file, err := os.Create(path)
	if err != nil {
		tr.Fail(err)
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	buf := make([]byte, 4)
	for _, v := range f.Data {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(v)))
		if _, err := w.Write(buf); err != nil {
			tr.Fail(err)
			return err
		}
	}
	if err := w.Flush(); err != nil {
		tr.Fail(err)
		return err
	}
	tr.Complete()
	return nil
}

// LoadRaw reads a square row-major little-endian float32 dump. The edge
// length is inferred from the file size.
func LoadRaw(path string) (*heightfield.Field, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("export: %s is not a float32 dump (%d bytes)", path, len(data))
	}
	count := len(data) / 4
	size := int(math.Sqrt(float64(count)))
	if size*size != count {
		return nil, fmt.Errorf("export: %s holds %d values, not a square grid", path, count)
	}

	f, err := heightfield.New(size)
	if err != nil {
		return nil, err
	}
	for i := 0; i < count; i++ {
		bits := binary.LittleEndian.Uint32(data[i*4:])
		f.Data[i] = float64(math.Float32frombits(bits))
	}
	return f, nil
}
