// Package architecture describes the catalog of restoration and upscaling networks as explicit graphs
// and builds them into stage sequences.
package architecture

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownArchitecture is returned for a name outside the catalog.
var ErrUnknownArchitecture = errors.New("architecture: unknown architecture")

// Original is the name of the passthrough entry, which shows the input unprocessed.
const Original = "Original"

// Kind classifies what an architecture does to its input.
type Kind int

const (
	// KindPassthrough leaves the input untouched.
	KindPassthrough Kind = iota
	// KindRestore removes artifacts at the input resolution.
	KindRestore
	// KindUpscale enlarges the input by an integer scale.
	KindUpscale
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindPassthrough:
		return "passthrough"
	case KindRestore:
		return "restore"
	case KindUpscale:
		return "upscale"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Info describes one catalog entry.
type Info struct {
	// Name is the selection key.
	Name string
	// Kind is what the network does.
	Kind Kind
	// Scale is the output scale relative to the input.
	Scale int
	// Width is the number of convolutions per hidden layer.
	Width int
	// Depth is the number of hidden layers.
	Depth int
	// TapFrom is the first hidden layer read by the heads; layers TapFrom..Depth-1 are read.
	TapFrom int
	// Heads is the number of final convolutions. Restore networks have one, upscalers feed theirs to
	// a depth-to-space rearrangement.
	Heads int
}

// Taps returns the number of textures each head reads.
func (i Info) Taps() int {
	return (i.Depth - i.TapFrom) * i.Width
}

var catalog = map[string]Info{
	"CNNM":           {Kind: KindRestore, Scale: 1, Width: 1, Depth: 7, TapFrom: 0, Heads: 1},
	"CNNSoftM":       {Kind: KindRestore, Scale: 1, Width: 1, Depth: 7, TapFrom: 0, Heads: 1},
	"CNNVL":          {Kind: KindRestore, Scale: 1, Width: 2, Depth: 7, TapFrom: 0, Heads: 1},
	"CNNSoftVL":      {Kind: KindRestore, Scale: 1, Width: 2, Depth: 7, TapFrom: 0, Heads: 1},
	"CNNUL":          {Kind: KindRestore, Scale: 1, Width: 3, Depth: 8, TapFrom: 3, Heads: 1},
	"GANUUL":         {Kind: KindRestore, Scale: 1, Width: 4, Depth: 6, TapFrom: 3, Heads: 1},
	"CNNx2L":         {Kind: KindUpscale, Scale: 2, Width: 1, Depth: 7, TapFrom: 0, Heads: 3},
	"CNNx2M":         {Kind: KindUpscale, Scale: 2, Width: 1, Depth: 7, TapFrom: 0, Heads: 3},
	"CNNx2VL":        {Kind: KindUpscale, Scale: 2, Width: 2, Depth: 7, TapFrom: 0, Heads: 3},
	"DenoiseCNNx2VL": {Kind: KindUpscale, Scale: 2, Width: 2, Depth: 7, TapFrom: 0, Heads: 3},
	"CNNx2UL":        {Kind: KindUpscale, Scale: 2, Width: 3, Depth: 7, TapFrom: 2, Heads: 3},
	"GANx3L":         {Kind: KindUpscale, Scale: 3, Width: 2, Depth: 6, TapFrom: 0, Heads: 7},
	"GANx4UUL":       {Kind: KindUpscale, Scale: 4, Width: 3, Depth: 5, TapFrom: 0, Heads: 12},
	Original:         {Kind: KindPassthrough, Scale: 1},
}

// Names returns every catalog name in sorted order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the catalog entry for name.
//
// Parameters:
//   - name: the architecture name
//
// Returns:
//   - Info: the entry, with Name set
//   - bool: false if the name is not in the catalog
func Lookup(name string) (Info, bool) {
	info, ok := catalog[name]
	if !ok {
		return Info{}, false
	}
	info.Name = name
	return info, true
}
