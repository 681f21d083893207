package stage

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/engine/device"
	"github.com/Carmen-Shannon/oxy-neural/engine/device/devicetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStage records passes and releases, and owns a texture created on the fake device.
type fakeStage struct {
	name     string
	out      device.Texture
	inputs   []device.Texture
	log      *[]string
	released bool
}

func (f *fakeStage) UpdateParam(name string, _ any) error { return Unsupported(f.name, name) }
func (f *fakeStage) OutputTexture() device.Texture        { return f.out }

func (f *fakeStage) Pass(device.CommandEncoder) error {
	if f.released {
		return ErrReleased
	}
	*f.log = append(*f.log, "pass "+f.name)
	return nil
}

func (f *fakeStage) Release() {
	f.released = true
	f.out.Release()
	*f.log = append(*f.log, "release "+f.name)
}

func chain() *Graph {
	g := NewGraph("chain")
	a := g.Add(Node{Name: "a", Inputs: []Ref{Source}})
	b := g.Add(Node{Name: "b", Inputs: []Ref{a}})
	g.Add(Node{Name: "c", Kind: NodeOverlay, Inputs: []Ref{Source, b}})
	return g
}

func TestGraphValidate(t *testing.T) {
	assert.NoError(t, chain().Validate(16))

	tests := map[string]*Graph{
		"empty": NewGraph("empty"),
		"forward reference": {Name: "fwd", Nodes: []Node{
			{Name: "a", Inputs: []Ref{1}},
			{Name: "b", Inputs: []Ref{0}},
		}},
		"self reference": {Name: "self", Nodes: []Node{{Name: "a", Inputs: []Ref{0}}}},
		"no inputs":      {Name: "none", Nodes: []Node{{Name: "a"}}},
		"duplicate name": {Name: "dup", Nodes: []Node{
			{Name: "a", Inputs: []Ref{Source}},
			{Name: "a", Inputs: []Ref{0}},
		}},
		"unused node": {Name: "unused", Nodes: []Node{
			{Name: "a", Inputs: []Ref{Source}},
			{Name: "b", Inputs: []Ref{Source}},
		}},
		"overlay arity": {Name: "overlay", Nodes: []Node{
			{Name: "a", Kind: NodeOverlay, Inputs: []Ref{Source}},
		}},
	}
	for name, g := range tests {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, g.Validate(16), ErrInvalidGraph)
		})
	}
}

func TestGraphValidateFanIn(t *testing.T) {
	g := NewGraph("wide")
	var refs []Ref
	for i := 0; i < 17; i++ {
		refs = append(refs, g.Add(Node{Name: string(rune('a' + i)), Inputs: []Ref{Source}}))
	}
	g.Add(Node{Name: "sink", Inputs: refs})

	assert.ErrorIs(t, g.Validate(16), ErrInvalidGraph)
	assert.NoError(t, g.Validate(17))
}

func TestGraphBuildWiresInputs(t *testing.T) {
	dev := devicetest.New()
	src, err := dev.CreateTexture(device.TextureDescriptor{Label: "source", Size: common.Dims(8, 8)})
	require.NoError(t, err)

	var log []string
	built := map[string][]string{}
	seq, err := chain().Build(src, 16, func(n Node, in []device.Texture) (Stage, error) {
		for _, tx := range in {
			built[n.Name] = append(built[n.Name], tx.Label())
		}
		out, err := dev.CreateTexture(device.TextureDescriptor{Label: n.Name, Size: common.Dims(8, 8)})
		if err != nil {
			return nil, err
		}
		return &fakeStage{name: n.Name, out: out, inputs: in, log: &log}, nil
	})
	require.NoError(t, err)

	assert.Equal(t, map[string][]string{
		"a": {"source"},
		"b": {"a"},
		"c": {"source", "b"},
	}, built)
	assert.Equal(t, "c", seq.OutputTexture().Label())

	enc, err := dev.BeginFrame()
	require.NoError(t, err)
	require.NoError(t, seq.Pass(enc))
	require.NoError(t, seq.Pass(enc))
	assert.Equal(t, []string{"pass a", "pass b", "pass c", "pass a", "pass b", "pass c"}, log)

	log = nil
	seq.Release()
	assert.Equal(t, []string{"release c", "release b", "release a"}, log)
	assert.Equal(t, []string{"source"}, dev.LiveTextures(), "the borrowed source is never released")
	assert.ErrorIs(t, seq.Pass(enc), ErrReleased)
}

func TestGraphBuildReleasesPartialOnFailure(t *testing.T) {
	dev := devicetest.New()
	src, err := dev.CreateTexture(device.TextureDescriptor{Label: "source", Size: common.Dims(8, 8)})
	require.NoError(t, err)

	boom := errors.New("boom")
	var log []string
	_, err = chain().Build(src, 16, func(n Node, in []device.Texture) (Stage, error) {
		if n.Name == "c" {
			return nil, boom
		}
		out, _ := dev.CreateTexture(device.TextureDescriptor{Label: n.Name, Size: common.Dims(8, 8)})
		return &fakeStage{name: n.Name, out: out, log: &log}, nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"release b", "release a"}, log)
	assert.Equal(t, []string{"source"}, dev.LiveTextures())
}

func TestSequenceAndPassthrough(t *testing.T) {
	dev := devicetest.New()
	src, err := dev.CreateTexture(device.TextureDescriptor{Label: "source", Size: common.Dims(4, 4)})
	require.NoError(t, err)

	empty := NewSequence("empty")
	assert.Nil(t, empty.OutputTexture())

	p := NewPassthrough("original", src)
	seq := NewSequence("wrapped", p)
	assert.Equal(t, src, seq.OutputTexture())
	assert.Equal(t, 1, seq.Len())
	assert.ErrorIs(t, seq.UpdateParam("strength", 1.0), ErrUnsupportedParam)
	assert.ErrorIs(t, p.UpdateParam("strength", 1.0), ErrUnsupportedParam)

	seq.Release()
	assert.Equal(t, []string{"source"}, dev.LiveTextures())
}
