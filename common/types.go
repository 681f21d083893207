// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import "fmt"

// Dimensions is a pixel extent. Every texture in a pipeline is described by one, and the preset planner reasons about
// resolutions exclusively in terms of it.
type Dimensions struct {
	// Width is the horizontal extent in pixels.
	Width int
	// Height is the vertical extent in pixels.
	Height int
}

// Dims is a shorthand constructor for Dimensions.
func Dims(width, height int) Dimensions {
	return Dimensions{Width: width, Height: height}
}

// String renders the dimensions as WxH.
func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Empty reports whether either extent is zero or negative. Empty dimensions never describe a usable frame.
func (d Dimensions) Empty() bool {
	return d.Width <= 0 || d.Height <= 0
}

// Area returns Width*Height.
func (d Dimensions) Area() int {
	return d.Width * d.Height
}

// Scaled multiplies both extents by an integer factor.
//
// Parameters:
//   - factor: the integer scale factor
//
// Returns:
//   - Dimensions: the scaled dimensions
func (d Dimensions) Scaled(factor int) Dimensions {
	return Dimensions{Width: d.Width * factor, Height: d.Height * factor}
}

// CeilHalf halves both extents, rounding up.
func (d Dimensions) CeilHalf() Dimensions {
	return Dimensions{Width: CeilDiv(d.Width, 2), Height: CeilDiv(d.Height, 2)}
}

// Exceeds reports whether both extents of d are strictly greater than ratio times the extents of o.
//
// Parameters:
//   - o: the reference dimensions
//   - ratio: the multiplier applied to o
//
// Returns:
//   - bool: true when d.Width > ratio*o.Width and d.Height > ratio*o.Height
func (d Dimensions) Exceeds(o Dimensions, ratio float64) bool {
	return float64(d.Width) > ratio*float64(o.Width) && float64(d.Height) > ratio*float64(o.Height)
}

// Within reports whether both extents of d lie strictly inside the open interval (lo*o, hi*o).
//
// Parameters:
//   - o: the reference dimensions
//   - lo: the exclusive lower ratio
//   - hi: the exclusive upper ratio
//
// Returns:
//   - bool: true when both extents are inside the interval
func (d Dimensions) Within(o Dimensions, lo, hi float64) bool {
	return d.Exceeds(o, lo) &&
		float64(d.Width) < hi*float64(o.Width) &&
		float64(d.Height) < hi*float64(o.Height)
}
