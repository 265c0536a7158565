package heightfield

// Sample bilinearly interpolates the elevation at a continuous position.
// The position must satisfy 0 <= x,y <= Size-1.
func (f *Field) Sample(x, y float64) float64 {
	cx, cy := int(x), int(y)
	if cx >= f.Size-1 {
		cx = f.Size - 2
	}
	if cy >= f.Size-1 {
		cy = f.Size - 2
	}
	u := x - float64(cx)
	v := y - float64(cy)

	h00 := f.At(cx, cy)
	h10 := f.At(cx+1, cy)
	h01 := f.At(cx, cy+1)
	h11 := f.At(cx+1, cy+1)

	return h00*(1-u)*(1-v) + h10*u*(1-v) + h01*(1-u)*v + h11*u*v
}

// Resample returns a new field of the target size produced by bilinear
// interpolation over this field. Resampling to the same size is a copy.
func (f *Field) Resample(size int) (*Field, error) {
	if size == f.Size {
		return f.Clone(), nil
	}
	out, err := New(size)
	if err != nil {
		return nil, err
	}
	if f.Size == 1 || size == 1 {
		for i := range out.Data {
			out.Data[i] = f.Data[0]
		}
		return out, nil
	}
	scale := float64(f.Size-1) / float64(size-1)
	for y := 0; y < size; y++ {
		sy := float64(y) * scale
		for x := 0; x < size; x++ {
			out.Set(x, y, f.Sample(float64(x)*scale, sy))
		}
	}
	return out, nil
}
