// Package sensors adapts environmental hardware to scalar on-demand samples.
// No buffering here: every Read hits the device, callers own cadence.
package sensors

import "math"

const StandardGravity = 9.80665 // m/s^2

// Climate is one barometric reading.
type Climate struct {
	AltitudeM    float64
	TemperatureC float64
	HumidityPct  float64
}

// Fix is the last known GPS position. Valid=false means no fix yet.
type Fix struct {
	Valid     bool
	Latitude  float64
	Longitude float64
	AltitudeM float64
}

type Barometer interface {
	Read() (Climate, error)
}

// Accelerometer reports acceleration magnitude as a multiple of 1g.
type Accelerometer interface {
	ReadG() (float64, error)
}

// GPS never blocks; it returns whatever the receiver produced last.
type GPS interface {
	Fix() Fix
}

// PressureAltitude converts station pressure (Pa) to altitude above sea
// level (m) via the international barometric formula.
func PressureAltitude(pressurePa float64) float64 {
	const seaLevelPa = 101325.0
	return 44330.0 * (1.0 - math.Pow(pressurePa/seaLevelPa, 1.0/5.255))
}

func Magnitude(x, y, z float64) float64 {
	return math.Sqrt(x*x + y*y + z*z)
}
