// Package architecturetest provides kernel libraries covering the whole architecture catalog for tests.
package architecturetest

import (
	"testing/fstest"

	"github.com/Carmen-Shannon/oxy-neural/engine/architecture"
	"github.com/Carmen-Shannon/oxy-neural/engine/device/devicetest"
	"github.com/Carmen-Shannon/oxy-neural/engine/kernel"
	"github.com/Carmen-Shannon/oxy-neural/engine/stage"
)

// FS returns a file system holding an averaging kernel for every convolution node in the catalog.
// Names listed in skip are left out.
func FS(skip ...string) fstest.MapFS {
	omit := make(map[string]bool, len(skip))
	for _, s := range skip {
		omit[s] = true
	}
	fsys := fstest.MapFS{}
	for _, name := range architecture.Names() {
		g, err := architecture.Graph(name)
		if err != nil || g == nil {
			continue
		}
		for _, n := range g.Nodes {
			key := name + "/" + n.Name
			if n.Kind != stage.NodeConv || omit[key] {
				continue
			}
			fsys[key+".wgsl"] = &fstest.MapFile{Data: []byte(devicetest.ConvSource(len(n.Inputs)))}
		}
	}
	return fsys
}

// Library returns a kernel library over FS(skip...).
func Library(skip ...string) kernel.Library {
	return kernel.NewFSLibrary(FS(skip...))
}
