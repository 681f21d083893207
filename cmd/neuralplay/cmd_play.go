package main

import (
	"time"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/engine"
	"github.com/Carmen-Shannon/oxy-neural/engine/device"
	"github.com/Carmen-Shannon/oxy-neural/engine/kernel"
	"github.com/Carmen-Shannon/oxy-neural/engine/renderer"
	"github.com/Carmen-Shannon/oxy-neural/engine/source"
	"github.com/Carmen-Shannon/oxy-neural/engine/window"
	"github.com/spf13/cobra"
)

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play MEDIA",
		Short: "Play a video, image or image directory in a window",
		Long: `Play a video, image or image directory in a window.

Keys: C toggles compare, Left/Right move the split line, Tab cycles
selections, 0-9 pick a selection by its index in "list", Esc quits.`,
		Args: cobra.ExactArgs(1),
		RunE: playHandler,
	}
	cmd.Flags().Bool("loop", false, "Restart image sequences at the end")
	return cmd
}

func playHandler(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	loop, _ := cmd.Flags().GetBool("loop")

	win, err := window.NewWindow(
		window.WithTitle(cfg.Display.Title),
		window.WithSize(cfg.Display.Width, cfg.Display.Height),
	)
	if err != nil {
		return err
	}
	defer func() { _ = win.Close() }()

	dev, err := device.NewWGPU(
		device.WithLabel("neuralplay"),
		device.WithSurfaceDescriptor(win.SurfaceDescriptor()),
		device.WithForceFallbackAdapter(cfg.Device.ForceSoftware),
		device.WithMaxSampledTextures(cfg.Device.MaxTextures),
	)
	if err != nil {
		return err
	}
	defer dev.Release()

	presentMode := renderer.PresentModeUncapped
	if cfg.Display.VSync {
		presentMode = renderer.PresentModeVSync
	}
	p, err := renderer.NewPresenter(renderer.BackendTypeWGPU, dev,
		renderer.WithSize(common.Dims(win.Width(), win.Height())),
		renderer.WithPresentMode(presentMode),
		renderer.WithCompare(cfg.Display.Compare),
		renderer.WithSplitRatio(cfg.Display.SplitRatio),
	)
	if err != nil {
		return err
	}
	defer p.Release()

	src, err := source.Open(args[0], source.WithFrameRate(cfg.Engine.FrameRate), source.WithLoop(loop))
	if err != nil {
		return err
	}
	defer src.Close()

	target := cfg.Target()
	if target.Empty() {
		target = common.Dims(win.Width(), win.Height())
	}
	e := engine.NewEngine(dev, kernel.NewDirLibrary(cfg.Kernels.Dir, kernel.WithValidation(cfg.Kernels.Validate)),
		engine.WithPresenter(p),
		engine.WithWindow(win),
		engine.WithSelection(cfg.Engine.Selection),
		engine.WithTarget(target),
		engine.WithProfiling(cfg.Engine.Profiling, time.Second),
	)
	defer e.Close()
	return e.Run(cmd.Context(), src)
}
