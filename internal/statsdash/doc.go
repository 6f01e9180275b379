// Package statsdash is an optional local dashboard, built only when the
// statsview build tag is present — same convention as the teacher's own
// statsview package, which shipped only a tagged file and no untagged
// fallback, so any unconditional caller failed to build without the tag.
// Here a companion stub.go supplies the !statsview half so cmd/crowdcade
// can call this package unconditionally and report unavailability at
// runtime instead of failing to compile.
//
// Underlying functionality provided by "github.com/go-echarts/statsview".
// Alongside the Go runtime graphs it serves by default, the supervisor's
// own fps/mode/queue-depth gauges are exposed via expvar so they show up
// at /debug/vars on the same listener.
package statsdash
