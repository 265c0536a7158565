package erosion

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/habib256/wilderness/heightfield"
	"github.com/habib256/wilderness/progress"
)

// Droplet termination thresholds: a droplet dies once its water or speed
// falls to this level.
const dropletDeathThreshold = 0.01

// Progress is reported once per this many droplets.
const dropletProgressBatch = 1000

// Height deltas below this count as a level step for the erosion limit.
const levelStepThreshold = 1e-9

// droplet is the ephemeral per-raindrop state. It lives on the stack for
// the duration of one simulated drop and is never shared or pooled.
type droplet struct {
	pos      mgl64.Vec2
	dir      mgl64.Vec2
	speed    float64
	water    float64
	sediment float64
}

// brushCell is one precomputed erosion brush offset with its raw weight.
type brushCell struct {
	dx, dy int
	weight float64
}

// DropletEroder runs independent virtual raindrops over a shared field.
// Droplets are strictly sequential: each one reads and writes the grid as
// mutated by every prior droplet, which is the reproducibility contract.
type DropletEroder struct {
	params DropletParams
	brush  []brushCell
}

// NewDropletEroder validates parameters and precomputes the erosion brush
// used when Radius exceeds a single cell.
func NewDropletEroder(params DropletParams) (*DropletEroder, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	e := &DropletEroder{params: params}
	if params.Radius > 1 {
		r := int(math.Ceil(params.Radius))
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				d := math.Sqrt(float64(dx*dx + dy*dy))
				if w := 1 - d/params.Radius; w > 0 {
					e.brush = append(e.brush, brushCell{dx: dx, dy: dy, weight: w})
				}
			}
		}
	}
	return e, nil
}

// Erode simulates params.Iterations droplets over the field, mutating it
// in place, and returns the same field. Output is deterministic per seed.
func (e *DropletEroder) Erode(f *heightfield.Field, tr *progress.Tracker) *heightfield.Field {
	p := e.params
	if p.Iterations == 0 {
		return f
	}
	tr.Start(progress.StageErosion,
		fmt.Sprintf("droplet erosion, %d droplets over %dx%d", p.Iterations, f.Size, f.Size))

	rng := heightfield.NewRNG(p.Seed)
	limit := float64(f.Size - 1)

	for i := 0; i < p.Iterations; i++ {
		d := droplet{
			pos:   mgl64.Vec2{rng.Float64() * limit, rng.Float64() * limit},
			speed: 1,
			water: 1,
		}
		e.simulate(f, &d, rng)

		if (i+1)%dropletProgressBatch == 0 || i+1 == p.Iterations {
			tr.Update(float64(i+1)/float64(p.Iterations),
				fmt.Sprintf("droplet %d/%d", i+1, p.Iterations),
				progress.Extras{"droplets": i + 1})
		}
	}
	tr.Complete()
	return f
}

// simulate runs one droplet until it leaves the grid or dries up.
func (e *DropletEroder) simulate(f *heightfield.Field, d *droplet, rng *heightfield.RNG) {
	p := e.params
	limit := float64(f.Size - 1)

	for {
		oldHeight, grad := sampleHeightGradient(f, d.pos[0], d.pos[1])

		d.dir = d.dir.Mul(p.Inertia).Sub(grad.Mul(1 - p.Inertia))
		if l := d.dir.Len(); l > 1e-12 {
			d.dir = d.dir.Mul(1 / l)
		} else {
			// Flat ground and no momentum: the droplet wanders off in
			// a random direction instead of idling in place.
			angle := rng.Uniform(0, 2*math.Pi)
			d.dir = mgl64.Vec2{math.Cos(angle), math.Sin(angle)}
		}

		next := d.pos.Add(d.dir)
		if next[0] < 0 || next[0] >= limit || next[1] < 0 || next[1] >= limit {
			return // left the grid, carried sediment is lost
		}

		newHeight := f.Sample(next[0], next[1])
		heightDelta := newHeight - oldHeight

		capacity := math.Max(p.MinSlope, -heightDelta) * d.speed * d.water * p.CapacityFactor

		if d.sediment > capacity || heightDelta > 0 {
			// Moving uphill fills the pit behind, never dropping more
			// than is carried.
			var amount float64
			if heightDelta > 0 {
				amount = math.Min(heightDelta, d.sediment)
			} else {
				amount = (d.sediment - capacity) * p.DepositionRate
			}
			depositBilinear(f, d.pos[0], d.pos[1], amount)
			d.sediment -= amount
		} else {
			// Downhill steps never erode past the height being moved
			// toward, which would dig a pit behind the droplet. Only
			// (near-)level steps get the minimum-slope floor, so a flat
			// plateau still weathers instead of being a fixed point.
			erodeLimit := -heightDelta
			if erodeLimit < levelStepThreshold {
				erodeLimit = p.MinSlope
			}
			amount := math.Min((capacity-d.sediment)*p.ErosionRate, erodeLimit)
			if amount > 0 {
				e.erodeAt(f, d.pos[0], d.pos[1], amount)
				d.sediment += amount
			}
		}

		speedSq := d.speed*d.speed + heightDelta*p.Gravity
		if speedSq < 0 {
			speedSq = 0
		}
		d.speed = math.Sqrt(speedSq)
		d.water *= 1 - p.EvaporationRate

		if d.water <= dropletDeathThreshold || d.speed <= dropletDeathThreshold {
			// The drop dries up where it stands and settles its load.
			depositBilinear(f, next[0], next[1], d.sediment)
			d.sediment = 0
			return
		}
		d.pos = next
	}
}

// sampleHeightGradient bilinearly samples the height and its gradient
// from the four cells bounding the continuous position.
func sampleHeightGradient(f *heightfield.Field, x, y float64) (float64, mgl64.Vec2) {
	cx, cy, u, v := cellWeights(f, x, y)

	h00 := f.At(cx, cy)
	h10 := f.At(cx+1, cy)
	h01 := f.At(cx, cy+1)
	h11 := f.At(cx+1, cy+1)

	height := h00*(1-u)*(1-v) + h10*u*(1-v) + h01*(1-u)*v + h11*u*v
	grad := mgl64.Vec2{
		(h10-h00)*(1-v) + (h11-h01)*v,
		(h01-h00)*(1-u) + (h11-h10)*u,
	}
	return height, grad
}

// cellWeights resolves a continuous position to its bounding cell and the
// fractional weights inside it.
func cellWeights(f *heightfield.Field, x, y float64) (cx, cy int, u, v float64) {
	cx, cy = int(x), int(y)
	if cx > f.Size-2 {
		cx = f.Size - 2
	}
	if cy > f.Size-2 {
		cy = f.Size - 2
	}
	return cx, cy, x - float64(cx), y - float64(cy)
}

// depositBilinear adds material across the four cells bounding (x, y) in
// proportion to the same fractional weights used for sampling.
func depositBilinear(f *heightfield.Field, x, y, amount float64) {
	cx, cy, u, v := cellWeights(f, x, y)
	f.Data[f.Index(cx, cy)] += amount * (1 - u) * (1 - v)
	f.Data[f.Index(cx+1, cy)] += amount * u * (1 - v)
	f.Data[f.Index(cx, cy+1)] += amount * (1 - u) * v
	f.Data[f.Index(cx+1, cy+1)] += amount * u * v
}

// erodeAt removes material around (x, y): bilinearly over the bounding
// cells for a unit radius, otherwise over the precomputed brush.
func (e *DropletEroder) erodeAt(f *heightfield.Field, x, y, amount float64) {
	if e.brush == nil {
		depositBilinear(f, x, y, -amount)
		return
	}
	cx, cy := int(x), int(y)

	var total float64
	for _, c := range e.brush {
		if f.In(cx+c.dx, cy+c.dy) {
			total += c.weight
		}
	}
	if total <= 0 {
		return
	}
	for _, c := range e.brush {
		if f.In(cx+c.dx, cy+c.dy) {
			f.Data[f.Index(cx+c.dx, cy+c.dy)] -= amount * c.weight / total
		}
	}
}
