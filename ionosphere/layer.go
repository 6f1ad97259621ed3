// Package ionosphere builds vertical electron-density profiles from the
// coefficient maps at a control point and derives the ionogram and the
// oblique-incidence frequency table used for ray tracing.
package ionosphere

import (
	"fmt"

	"hfprop/mathutil"
)

// Layer identifies a reflecting region.
type Layer int

const (
	E Layer = iota
	F1
	F2
)

// NumLayers is the number of reflecting layers.
const NumLayers = 3

var layerNames = [NumLayers]string{"E", "F1", "F2"}

func (l Layer) String() string {
	if l < 0 || int(l) >= NumLayers {
		return fmt.Sprintf("layer(%d)", int(l))
	}
	return layerNames[l]
}

// Layers lists the reflecting layers bottom-up.
func Layers() [NumLayers]Layer {
	return [NumLayers]Layer{E, F1, F2}
}

// LayerInfo holds critical frequency (MHz), peak height and semi-thickness (km).
// A zero Fo marks an absent layer.
type LayerInfo struct {
	Fo float64
	Hm float64
	Ym float64
}

func (l LayerInfo) Present() bool {
	return l.Fo > 0
}

// Reflection is one ray solution at a single reflection point.
type Reflection struct {
	Layer         Layer
	Elevation     float64 // radians
	TrueHeight    float64 // km
	VirtualHeight float64 // km
	VertFreq      float64 // equivalent vertical-incidence frequency, MHz
	// HopDistance is the ground range of one hop, radians.
	HopDistance float64
}

// Number of tabulated elevation angles in the oblique table.
const NumAngles = 40

// angleDeg are the tabulated takeoff angles in degrees.
var angleDeg = [NumAngles]float64{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10,
	12, 14, 16, 18, 20, 22, 24, 26, 28, 30, 32, 34, 36, 38, 40,
	43, 46, 49, 52, 55, 58, 61, 64, 67, 70,
	74, 78, 82, 86,
}

// Angle returns tabulated takeoff angle i in radians.
func Angle(i int) float64 {
	return mathutil.DegToRad(angleDeg[i])
}
