package engine

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/engine/architecture"
	"github.com/Carmen-Shannon/oxy-neural/engine/device"
	"github.com/Carmen-Shannon/oxy-neural/engine/kernel"
	"github.com/Carmen-Shannon/oxy-neural/engine/preset"
	"github.com/Carmen-Shannon/oxy-neural/engine/stage"
)

// PresetPrefix prefixes preset mode names in a selection, as in "Preset-ModeB".
const PresetPrefix = "Preset-"

// Selections returns every name Select accepts: the catalog architectures, Original, then the presets.
//
// Returns:
//   - []string: the selection names
func Selections() []string {
	names := architecture.Names()
	for _, m := range preset.Modes() {
		names = append(names, PresetPrefix+m)
	}
	return names
}

// lookupPreset resolves a "Preset-<mode>" selection.
func lookupPreset(name string) (preset.Mode, bool) {
	mode, ok := strings.CutPrefix(name, PresetPrefix)
	if !ok {
		return preset.Mode{}, false
	}
	return preset.LookupMode(mode)
}

func validSelection(name string) bool {
	if _, ok := lookupPreset(name); ok {
		return true
	}
	_, ok := architecture.Lookup(name)
	return ok
}

// buildSelection builds the pipeline a selection names over input.
func buildSelection(name string, dev device.Device, input device.Texture, target common.Dimensions, lib kernel.Library) (stage.Stage, error) {
	if mode, ok := lookupPreset(name); ok {
		p, err := preset.New(dev, input, target, mode, lib)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	a, err := architecture.New(name, dev, input, lib)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// unknownSelection builds the error returned for a name Select does not accept.
func unknownSelection(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownSelection, name)
}
