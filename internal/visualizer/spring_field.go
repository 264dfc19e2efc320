package visualizer

import "github.com/charmbracelet/harmonica"

// springValue eases a single scalar toward a moving target.
type springValue struct {
	spring harmonica.Spring
	pos    float64
	vel    float64
	primed bool
}

func newSpringValue(fps int, frequency, damping float64) springValue {
	return springValue{spring: harmonica.NewSpring(harmonica.FPS(fps), frequency, damping)}
}

// step advances one frame. The first call snaps to the target.
func (s *springValue) step(target float64) float64 {
	if !s.primed {
		s.pos = target
		s.primed = true
		return s.pos
	}
	s.pos, s.vel = s.spring.Update(s.pos, s.vel, target)
	return s.pos
}
