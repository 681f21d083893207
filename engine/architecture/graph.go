package architecture

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-neural/engine/stage"
)

// Graph returns the explicit node graph of a catalog entry. Every hidden layer after the first reads all
// convolutions of the previous layer, the heads read every convolution of the tapped layers, and the
// graph ends in an overlay of the source and the enhancement.
//
// Parameters:
//   - name: the architecture name
//
// Returns:
//   - *stage.Graph: the graph, or nil for the passthrough entry
//   - error: ErrUnknownArchitecture for names outside the catalog
func Graph(name string) (*stage.Graph, error) {
	info, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownArchitecture, name)
	}
	if info.Kind == KindPassthrough {
		return nil, nil
	}

	g := stage.NewGraph(name)
	layers := make([][]stage.Ref, info.Depth)
	for l := 0; l < info.Depth; l++ {
		inputs := []stage.Ref{stage.Source}
		if l > 0 {
			inputs = layers[l-1]
		}
		for b := 0; b < info.Width; b++ {
			layers[l] = append(layers[l], g.Add(stage.Node{
				Name:   convName(l, b),
				Kind:   stage.NodeConv,
				Inputs: inputs,
			}))
		}
	}

	var taps []stage.Ref
	for l := info.TapFrom; l < info.Depth; l++ {
		taps = append(taps, layers[l]...)
	}
	heads := make([]stage.Ref, info.Heads)
	for h := range heads {
		heads[h] = g.Add(stage.Node{
			Name:   suffixed("conv2d_last_tf", h),
			Kind:   stage.NodeConv,
			Inputs: taps,
		})
	}

	enhanced := heads[0]
	if info.Kind == KindUpscale {
		enhanced = g.Add(stage.Node{
			Name:   "depth_to_space",
			Kind:   stage.NodeDepthToSpace,
			Inputs: heads,
		})
	}
	g.Add(stage.Node{
		Name:   "overlay",
		Kind:   stage.NodeOverlay,
		Inputs: []stage.Ref{stage.Source, enhanced},
		Scale:  info.Scale,
	})
	return g, nil
}

// convName names the b-th convolution of hidden layer l: conv2d_tf, conv2d_tf1, conv2d_1_tf, conv2d_1_tf1, ...
func convName(l, b int) string {
	if l == 0 {
		return suffixed("conv2d_tf", b)
	}
	return suffixed(fmt.Sprintf("conv2d_%d_tf", l), b)
}

func suffixed(base string, i int) string {
	if i == 0 {
		return base
	}
	return fmt.Sprintf("%s%d", base, i)
}
