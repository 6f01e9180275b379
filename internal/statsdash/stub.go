//go:build !statsview
// +build !statsview

package statsdash

import "io"

// Gauges is the narrow read-only surface the dashboard would poll, kept
// identical across both build variants so callers don't need their own tag.
type Gauges interface {
	FPS() float64
	Mode() string
	QueueDepth() int
}

// Launch does nothing in a build without the statsview tag.
func Launch(output io.Writer, g Gauges) {}

// Available reports whether a dashboard is available to launch.
func Available() bool {
	return false
}
