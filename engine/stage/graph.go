package stage

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/engine/device"
)

// Ref identifies the producer of a node input: either Source or the index of an earlier node.
type Ref int

// Source refers to the texture the graph is built on.
const Source Ref = -1

// NodeKind selects the primitive a node is built from.
type NodeKind int

const (
	// NodeConv is a learned convolution layer whose shader is loaded from a kernel library.
	NodeConv NodeKind = iota
	// NodeDepthToSpace rearranges channel groups of its inputs into an upscaled image.
	NodeDepthToSpace
	// NodeOverlay adds its second input onto a resampled copy of its first.
	NodeOverlay
)

// String returns the node kind name.
func (k NodeKind) String() string {
	switch k {
	case NodeConv:
		return "conv2d"
	case NodeDepthToSpace:
		return "depth_to_space"
	case NodeOverlay:
		return "overlay"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// Node is one vertex of a graph.
type Node struct {
	// Name identifies the node; for convolutions it is also the kernel's file name.
	Name string
	// Kind selects the primitive.
	Kind NodeKind
	// Inputs lists producers in binding order.
	Inputs []Ref
	// Scale is the output scale relative to the source, used by overlay nodes.
	Scale int
}

// Graph is an explicit acyclic description of a multi-stage network. Nodes are stored in topological
// order: a node may only read the source or nodes added before it. The last node is the output.
type Graph struct {
	Name  string
	Nodes []Node
}

// Factory builds the Stage for one node from its resolved input textures.
type Factory func(n Node, inputs []device.Texture) (Stage, error)

// NewGraph creates an empty graph.
func NewGraph(name string) *Graph {
	return &Graph{Name: name}
}

// Add appends a node and returns its reference.
//
// Parameters:
//   - n: the node to add
//
// Returns:
//   - Ref: a reference later nodes can list as an input
func (g *Graph) Add(n Node) Ref {
	g.Nodes = append(g.Nodes, n)
	return Ref(len(g.Nodes) - 1)
}

// Output returns the reference of the output node.
func (g *Graph) Output() Ref {
	return Ref(len(g.Nodes) - 1)
}

// Validate checks that the graph is non-empty, acyclic, free of dangling or unused nodes, and that no node
// reads more than maxFanIn textures.
//
// Parameters:
//   - maxFanIn: the per-node input limit, typically the device's sampled texture limit
//
// Returns:
//   - error: an error wrapping ErrInvalidGraph describing the first violation
func (g *Graph) Validate(maxFanIn int) error {
	if len(g.Nodes) == 0 {
		return fmt.Errorf("%w: %s has no nodes", ErrInvalidGraph, g.Name)
	}
	names := make(map[string]bool, len(g.Nodes))
	consumed := make([]bool, len(g.Nodes))
	for i, n := range g.Nodes {
		if n.Name == "" {
			return fmt.Errorf("%w: %s node %d has no name", ErrInvalidGraph, g.Name, i)
		}
		if names[n.Name] {
			return fmt.Errorf("%w: %s has duplicate node %q", ErrInvalidGraph, g.Name, n.Name)
		}
		names[n.Name] = true

		if len(n.Inputs) == 0 {
			return fmt.Errorf("%w: %s node %q has no inputs", ErrInvalidGraph, g.Name, n.Name)
		}
		if len(n.Inputs) > maxFanIn {
			return fmt.Errorf("%w: %s node %q reads %d textures, limit is %d", ErrInvalidGraph, g.Name, n.Name, len(n.Inputs), maxFanIn)
		}
		for _, r := range n.Inputs {
			if r == Source {
				continue
			}
			if r < 0 || int(r) >= i {
				return fmt.Errorf("%w: %s node %q reads %d, which is not an earlier node", ErrInvalidGraph, g.Name, n.Name, r)
			}
			consumed[r] = true
		}
		if n.Kind == NodeOverlay && len(n.Inputs) != 2 {
			return fmt.Errorf("%w: %s overlay %q needs exactly 2 inputs", ErrInvalidGraph, g.Name, n.Name)
		}
	}
	for i := 0; i < len(g.Nodes)-1; i++ {
		if !consumed[i] {
			return fmt.Errorf("%w: %s node %q is never read", ErrInvalidGraph, g.Name, g.Nodes[i].Name)
		}
	}
	return nil
}

// Build validates the graph and materializes it into a Sequence over input. Nodes are built in order;
// if any node fails, every stage built so far is released and the error is returned.
//
// Parameters:
//   - input: the source texture, borrowed for the lifetime of the result
//   - maxFanIn: the per-node input limit
//   - factory: builds each node's Stage
//
// Returns:
//   - *Sequence: the built pipeline, whose output is the graph's output node
//   - error: a validation or factory error
func (g *Graph) Build(input device.Texture, maxFanIn int, factory Factory) (*Sequence, error) {
	if err := g.Validate(maxFanIn); err != nil {
		return nil, err
	}
	seq := NewSequence(g.Name)
	for _, n := range g.Nodes {
		inputs := make([]device.Texture, len(n.Inputs))
		for j, r := range n.Inputs {
			if r == Source {
				inputs[j] = input
			} else {
				inputs[j] = seq.members[r].OutputTexture()
			}
		}
		st, err := factory(n, inputs)
		if err != nil {
			seq.Release()
			return nil, fmt.Errorf("%s/%s: %w", g.Name, n.Name, err)
		}
		common.Logger().Debug("stage: built node", "graph", g.Name, "node", n.Name, "kind", n.Kind, "inputs", len(inputs), "output", st.OutputTexture().Size())
		seq.Append(st)
	}
	return seq, nil
}
