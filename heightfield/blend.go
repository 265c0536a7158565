package heightfield

import "fmt"

// Blend linearly combines two fields as ratio*a + (1-ratio)*b and rescales
// the result to [0,1]. The output takes b's resolution; a is bilinearly
// resampled first when its resolution differs.
func Blend(a, b *Field, ratio float64) (*Field, error) {
	if ratio < 0 || ratio > 1 {
		return nil, fmt.Errorf("heightfield: blend ratio must be in [0,1], got %v", ratio)
	}
	if a.Size != b.Size {
		resampled, err := a.Resample(b.Size)
		if err != nil {
			return nil, err
		}
		a = resampled
	}
	out, err := New(b.Size)
	if err != nil {
		return nil, err
	}
	for i := range out.Data {
		out.Data[i] = ratio*a.Data[i] + (1-ratio)*b.Data[i]
	}
	out.Normalize()
	return out, nil
}
