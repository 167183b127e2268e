// Package coords provides the shared coordinate value type that the
// station configuration, the location store, and the telemetry layer
// all pass around.  Positions are geodetic: decimal degrees for
// latitude and longitude, meters above the ellipsoid for altitude.
package coords

import (
	"fmt"
	"math"
)

const (
	// DegreeTolerance is the equality tolerance for latitude and
	// longitude comparisons.  1e-8 degrees is roughly a millimeter
	// at the equator, comfortably inside the centimeter precision
	// the station operates at.
	DegreeTolerance = 1e-8

	// MeterTolerance is the equality tolerance for altitude
	// comparisons.
	MeterTolerance = 1e-2
)

// Coordinates is a geodetic position.  The JSON keys match the
// station configuration file on disk, which uses upper-case keys for
// historical reasons and must not change.
type Coordinates struct {
	Latitude  float64 `json:"LATITUDE"`
	Longitude float64 `json:"LONGITUDE"`
	Altitude  float64 `json:"ALTITUDE"`
}

// FieldError reports a named field that failed validation.
type FieldError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validate checks that the position is physically meaningful.  The
// first offending field is returned as a *FieldError.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return &FieldError{Field: "latitude", Reason: "must be within [-90, 90] degrees"}
	}
	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return &FieldError{Field: "longitude", Reason: "must be within [-180, 180] degrees"}
	}
	if math.IsNaN(c.Altitude) || math.IsInf(c.Altitude, 0) {
		return &FieldError{Field: "altitude", Reason: "must be a finite number of meters"}
	}
	return nil
}

// EqualWithin reports whether two positions are the same location at
// the station's working precision.
func (c Coordinates) EqualWithin(o Coordinates) bool {
	return math.Abs(c.Latitude-o.Latitude) <= DegreeTolerance &&
		math.Abs(c.Longitude-o.Longitude) <= DegreeTolerance &&
		math.Abs(c.Altitude-o.Altitude) <= MeterTolerance
}

// IsZero reports whether the position is the zero value, which the
// station writes out when it is surveying its own position.
func (c Coordinates) IsZero() bool {
	return c.Latitude == 0 && c.Longitude == 0 && c.Altitude == 0
}

// String renders the position at display precision: ten decimal
// places of degrees and centimeter altitude, matching the dashboard.
func (c Coordinates) String() string {
	return fmt.Sprintf("%.10f, %.10f, %.2fm", c.Latitude, c.Longitude, c.Altitude)
}
