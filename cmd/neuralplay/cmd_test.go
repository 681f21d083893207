package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/Carmen-Shannon/oxy-neural/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewCLI()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestList(t *testing.T) {
	out, err := run(t, "list")
	require.NoError(t, err)

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "CNNx2M")
	assert.Contains(t, out, "upscale")
	assert.Contains(t, out, "Preset-ModeC")
	assert.Contains(t, out, "DenoiseCNNx2VL > CNNM > CNNx2M")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[1]), "0"))
}

func TestPlan(t *testing.T) {
	out, err := run(t, "plan", "--native", "1920x1080", "--target", "3840x2160", "--mode", "ModeC")
	require.NoError(t, err)

	assert.Contains(t, out, "Clamp")
	assert.Contains(t, out, "DenoiseCNNx2VL")
	assert.NotContains(t, out, "Downscale")
	assert.Contains(t, out, "ModeC 1920x1080 -> 3840x2160")
}

func TestPlanErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing target", []string{"plan"}, "--target is required"},
		{"bad target", []string{"plan", "--target", "4k"}, "not WxH"},
		{"bad native", []string{"plan", "--native", "0x10", "--target", "100x100"}, "non-positive"},
		{"unknown mode", []string{"plan", "--target", "100x100", "--mode", "ModeZ"}, "unknown mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadConfigFlags(t *testing.T) {
	t.Setenv(config.EnvSelection, "")
	t.Setenv(config.EnvTarget, "")
	t.Setenv(config.EnvKernelsDir, "")

	cmd := NewCLI()
	require.NoError(t, cmd.ParseFlags([]string{"--selection", "CNNM", "--kernels", "/tmp/k", "--target", "2560x1440"}))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "CNNM", cfg.Engine.Selection)
	assert.Equal(t, "/tmp/k", cfg.Kernels.Dir)
	assert.Equal(t, common.Dims(2560, 1440), cfg.Target())
}

func TestSyntheticFrame(t *testing.T) {
	f := syntheticFrame(common.Dims(4, 2))
	require.Len(t, f.Pix, 4*2*4)
	assert.Equal(t, byte(0), f.Pix[0])
	assert.Equal(t, byte(255), f.Pix[4*3])
	assert.Equal(t, byte(255), f.Pix[4*4+1])
	assert.Equal(t, byte(255), f.Pix[3])
}
