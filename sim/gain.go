package sim

import (
	"stickynav/trajectory"
	"stickynav/worldmap"
)

// FrontierGain rewards segments whose end point would reveal unobserved
// voxels. A segment is non-viable when its end sees nothing new.
type FrontierGain struct {
	World  *worldmap.Grid
	Radius float64
}

func (g FrontierGain) ComputeGain(segment *trajectory.Segment) bool {
	end, ok := segment.End()
	if !ok {
		return false
	}
	unobserved := g.World.CountUnobserved(end.Position, g.Radius)
	if unobserved == 0 {
		return false
	}
	r := g.World.Resolution()
	segment.Gain = float64(unobserved) * r * r * r
	return true
}
