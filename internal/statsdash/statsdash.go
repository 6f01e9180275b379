//go:build statsview
// +build statsview

package statsdash

import (
	"expvar"
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// Address is the local listener the dashboard binds to, same port the
// teacher's own statsview package used.
const Address = "localhost:12600"

const url = "/debug/statsview"

// Gauges is the narrow read-only surface the dashboard polls.
type Gauges interface {
	FPS() float64
	Mode() string
	QueueDepth() int
}

// Launch starts the statsview HTTP server on a new goroutine and publishes
// g's values under /debug/vars.
func Launch(output io.Writer, g Gauges) {
	expvar.Publish("crowdcade_fps", expvar.Func(func() interface{} { return g.FPS() }))
	expvar.Publish("crowdcade_mode", expvar.Func(func() interface{} { return g.Mode() }))
	expvar.Publish("crowdcade_queue_depth", expvar.Func(func() interface{} { return g.QueueDepth() }))

	go func() {
		viewer.SetConfiguration(viewer.WithAddr(Address))
		mgr := statsview.New()
		mgr.Start()
	}()

	fmt.Fprintf(output, "stats dashboard available at %s%s\n", Address, url)
}

// Available reports whether a dashboard is available to launch.
func Available() bool {
	return true
}
