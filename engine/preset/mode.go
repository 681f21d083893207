package preset

import "sort"

// Mode names the architectures a preset uses at each tier of the plan. An empty Restore skips the
// first restoration.
type Mode struct {
	Name          string
	Restore       string
	Upscale       string
	SecondRestore string
	SecondUpscale string
}

var (
	// ModeB restores twice with the soft networks, favoring artifact removal on compressed sources.
	ModeB = Mode{
		Name:          "ModeB",
		Restore:       "CNNSoftVL",
		Upscale:       "CNNx2VL",
		SecondRestore: "CNNSoftM",
		SecondUpscale: "CNNx2M",
	}

	// ModeC skips the first restoration and denoises while upscaling.
	ModeC = Mode{
		Name:          "ModeC",
		Upscale:       "DenoiseCNNx2VL",
		SecondRestore: "CNNM",
		SecondUpscale: "CNNx2M",
	}
)

var modes = map[string]Mode{
	ModeB.Name: ModeB,
	ModeC.Name: ModeC,
}

// Modes returns the names of the built-in modes in sorted order.
func Modes() []string {
	names := make([]string, 0, len(modes))
	for name := range modes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupMode returns the built-in mode with the given name.
func LookupMode(name string) (Mode, bool) {
	m, ok := modes[name]
	return m, ok
}
