package ionosphere

import (
	"hfprop/coeffs"
	"hfprop/geo"
	"hfprop/geomag"
	"hfprop/solar"
)

// Ground holds the electrical constants used for ground-reflection loss.
type Ground struct {
	Permittivity float64 // relative
	Conductivity float64 // S/m
}

var (
	LandGround = Ground{Permittivity: 15, Conductivity: 0.005}
	SeaGround  = Ground{Permittivity: 80, Conductivity: 5}
)

// ControlPoint is one sample location along the path.
type ControlPoint struct {
	Location geo.Point
	// Distance from the transmitter along the path, radians.
	Distance float64
	Solar    solar.Environment
	Mag      geomag.Environment
	Land     bool
	Ground   Ground
}

// NewControlPoint evaluates the solar, geomagnetic and ground environment at p.
func NewControlPoint(p geo.Point, dist, utc float64, month int, field *geomag.Model, table *coeffs.Table) ControlPoint {
	cp := ControlPoint{
		Location: p,
		Distance: dist,
		Solar:    solar.At(p, utc, month),
		Mag:      field.At(p),
		Land:     table.IsLand(p.Lat, p.Lon),
	}
	if cp.Land {
		cp.Ground = LandGround
	} else {
		cp.Ground = SeaGround
	}
	return cp
}
