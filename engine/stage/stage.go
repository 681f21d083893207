// Package stage defines the contract shared by every unit of GPU work in a pipeline, from a single compute
// kernel to a whole preset, along with the composites that sequence them.
package stage

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-neural/engine/device"
)

var (
	// ErrUnsupportedParam is returned by UpdateParam for a parameter the stage does not expose.
	ErrUnsupportedParam = errors.New("stage: unsupported parameter")

	// ErrInvalidParamValue is returned by UpdateParam when the value cannot be converted for the parameter.
	ErrInvalidParamValue = errors.New("stage: invalid parameter value")

	// ErrReleased is returned by Pass after Release.
	ErrReleased = errors.New("stage: released")

	// ErrInvalidGraph is returned when a graph description fails validation.
	ErrInvalidGraph = errors.New("stage: invalid graph")
)

// Stage is a unit of GPU work that reads one or more textures and owns exactly one output texture.
// Stages are built once for a fixed input resolution and recorded every frame.
type Stage interface {
	// UpdateParam sets a named runtime parameter. Stages without tunable parameters reject every name.
	//
	// Parameters:
	//   - name: the parameter name
	//   - value: the new value; numeric stages accept float32, float64, int and bool
	//
	// Returns:
	//   - error: an error wrapping ErrUnsupportedParam or ErrInvalidParamValue
	UpdateParam(name string, value any) error

	// Pass records the stage's GPU work into the frame's encoder. It allocates no GPU resources and
	// records the same work for every call until Release.
	//
	// Parameters:
	//   - enc: the frame's command encoder
	//
	// Returns:
	//   - error: an error if recording fails or the stage was released
	Pass(enc device.CommandEncoder) error

	// OutputTexture returns the texture the stage writes. It is stable for the lifetime of the stage.
	//
	// Returns:
	//   - device.Texture: the stage's output
	OutputTexture() device.Texture

	// Release frees every GPU resource the stage owns. It never releases borrowed input textures.
	Release()
}

// Unsupported builds the error returned by stages that do not expose the named parameter.
//
// Parameters:
//   - label: the label of the rejecting stage
//   - name: the parameter that was requested
//
// Returns:
//   - error: an error wrapping ErrUnsupportedParam
func Unsupported(label, name string) error {
	return fmt.Errorf("%s: %q: %w", label, name, ErrUnsupportedParam)
}
