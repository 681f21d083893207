package stage

import (
	"github.com/Carmen-Shannon/oxy-neural/engine/device"
)

// Sequence is a composite Stage that records its members in order. Its output is the output of its last member.
type Sequence struct {
	label    string
	members  []Stage
	released bool
}

var _ Stage = &Sequence{}

// NewSequence creates a sequence from the given members.
//
// Parameters:
//   - label: a label used in logs and errors
//   - members: the stages to run, in order
//
// Returns:
//   - *Sequence: the composite
func NewSequence(label string, members ...Stage) *Sequence {
	return &Sequence{label: label, members: members}
}

// Append adds a stage to the end of the sequence. It is only meant to be used while building a pipeline.
func (s *Sequence) Append(st Stage) {
	s.members = append(s.members, st)
}

// Label returns the sequence label.
func (s *Sequence) Label() string {
	return s.label
}

// Members returns the stages of the sequence in recording order.
func (s *Sequence) Members() []Stage {
	out := make([]Stage, len(s.members))
	copy(out, s.members)
	return out
}

// Len returns the number of members.
func (s *Sequence) Len() int {
	return len(s.members)
}

func (s *Sequence) UpdateParam(name string, _ any) error {
	return Unsupported(s.label, name)
}

func (s *Sequence) Pass(enc device.CommandEncoder) error {
	if s.released {
		return ErrReleased
	}
	for _, m := range s.members {
		if err := m.Pass(enc); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sequence) OutputTexture() device.Texture {
	if len(s.members) == 0 {
		return nil
	}
	return s.members[len(s.members)-1].OutputTexture()
}

// Release releases members in reverse construction order.
func (s *Sequence) Release() {
	if s.released {
		return
	}
	s.released = true
	for i := len(s.members) - 1; i >= 0; i-- {
		s.members[i].Release()
	}
}

// Passthrough is a Stage that records nothing and exposes a borrowed texture as its output.
type Passthrough struct {
	label   string
	texture device.Texture
}

var _ Stage = &Passthrough{}

// NewPassthrough wraps a texture the caller keeps ownership of.
func NewPassthrough(label string, t device.Texture) *Passthrough {
	return &Passthrough{label: label, texture: t}
}

func (p *Passthrough) UpdateParam(name string, _ any) error { return Unsupported(p.label, name) }
func (p *Passthrough) Pass(device.CommandEncoder) error     { return nil }
func (p *Passthrough) OutputTexture() device.Texture        { return p.texture }
func (p *Passthrough) Release()                             {}
