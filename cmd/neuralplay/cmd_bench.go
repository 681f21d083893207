package main

import (
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/config"
	"github.com/Carmen-Shannon/oxy-neural/engine"
	"github.com/Carmen-Shannon/oxy-neural/engine/device"
	"github.com/Carmen-Shannon/oxy-neural/engine/kernel"
	"github.com/Carmen-Shannon/oxy-neural/engine/renderer"
	"github.com/Carmen-Shannon/oxy-neural/engine/source"
	"github.com/spf13/cobra"
)

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench [MEDIA]",
		Short: "Run frames through a pipeline headless and report throughput",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchHandler,
	}
	cmd.Flags().Int("frames", 300, "Stop after this many frames")
	cmd.Flags().String("native", "640x360", "Synthetic frame size when no media is given")
	return cmd
}

// syntheticFrame returns a gradient frame so benchmarks run without media.
func syntheticFrame(d common.Dimensions) source.Frame {
	pix := make([]byte, d.Area()*4)
	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			i := 4 * (y*d.Width + x)
			pix[i] = byte(255 * x / max(1, d.Width-1))
			pix[i+1] = byte(255 * y / max(1, d.Height-1))
			pix[i+2] = 128
			pix[i+3] = 255
		}
	}
	return source.Frame{Width: d.Width, Height: d.Height, Pix: pix}
}

func benchHandler(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	frames, _ := cmd.Flags().GetInt("frames")
	if frames <= 0 {
		return fmt.Errorf("--frames must be positive")
	}

	var src source.FrameSource
	if len(args) == 1 {
		src, err = source.Open(args[0], source.WithLoop(true))
		if err != nil {
			return err
		}
	} else {
		native, _ := cmd.Flags().GetString("native")
		d, err := config.ParseDimensions(native)
		if err != nil {
			return err
		}
		src = source.NewStatic([]source.Frame{syntheticFrame(d)}, source.WithLoop(true))
	}
	defer src.Close()

	dev, err := device.NewWGPU(
		device.WithLabel("neuralplay-bench"),
		device.WithForceFallbackAdapter(cfg.Device.ForceSoftware),
		device.WithMaxSampledTextures(cfg.Device.MaxTextures),
	)
	if err != nil {
		return err
	}
	defer dev.Release()

	p, err := renderer.NewPresenter(renderer.BackendTypeHeadless, dev)
	if err != nil {
		return err
	}
	defer p.Release()

	var e engine.Engine
	e = engine.NewEngine(dev, kernel.NewDirLibrary(cfg.Kernels.Dir, kernel.WithValidation(cfg.Kernels.Validate)),
		engine.WithPresenter(p),
		engine.WithSelection(cfg.Engine.Selection),
		engine.WithTarget(cfg.Target()),
		engine.WithUncapped(true),
		engine.WithProfiling(cfg.Engine.Profiling, time.Second),
		engine.WithFrameCallback(func(s engine.Stats) {
			if s.Frames >= frames {
				e.Quit()
			}
		}),
	)
	defer e.Close()

	start := time.Now()
	if err := e.Run(cmd.Context(), src); err != nil {
		return err
	}
	elapsed := time.Since(start)

	s := e.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d frames %s -> %s in %s (%.1f fps, %d skipped, %d rebuilds)\n",
		s.Selection, s.Frames, s.Native, s.Output, elapsed.Round(time.Millisecond),
		float64(s.Frames)/elapsed.Seconds(), s.Skipped, s.Rebuilds)
	return nil
}
