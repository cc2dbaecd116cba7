package domain

import "context"

// StoppageThreshold is the wind speed in m/s at which all sites stop work.
const StoppageThreshold = 10.0

// WindReading is a single wind-speed observation.
type WindReading struct {
	SpeedMetersPerSecond float64
}

// StoppageRequired reports whether the reading triggers the work-stoppage
// alert. The boundary is inclusive.
func (w WindReading) StoppageRequired() bool {
	return w.SpeedMetersPerSecond >= StoppageThreshold
}

// WeatherSignal supplies the current wind reading.
type WeatherSignal interface {
	Current(ctx context.Context) (WindReading, error)
}
