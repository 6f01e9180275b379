// Package wavdump optionally mirrors the outgoing PCM audio stream to a WAV
// file for diagnostics. Buffer-everything-then-flush-on-Close is adapted
// from the role of the teacher's wavwriter package (which buffered
// mono samples in memory and wrote them out in EndMixing); here the source
// is already 16-bit stereo PCM, so go-audio/wav's encoder is used directly
// instead of youpy/go-wav.
package wavdump

import (
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/jetsetilly/crowdcade/internal/curated"
	"github.com/jetsetilly/crowdcade/internal/emulator"
	"github.com/jetsetilly/crowdcade/internal/logger"
)

const (
	bitDepth    = 16
	numChannels = emulator.AudioChannels
	sampleRate  = emulator.AudioSampleRate
)

// Dumper accumulates every audio chunk it's handed and writes a single WAV
// file when Close is called.
type Dumper struct {
	path string

	mu      sync.Mutex
	samples []int
}

// New returns a Dumper that will write to path on Close.
func New(path string) *Dumper {
	return &Dumper{path: path}
}

// Write appends one chunk's worth of interleaved s16-LE stereo samples to
// the in-memory buffer.
func (d *Dumper) Write(chunk emulator.AudioChunk) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := 0; i+1 < len(chunk); i += 2 {
		s := int(int16(uint16(chunk[i]) | uint16(chunk[i+1])<<8))
		d.samples = append(d.samples, s)
	}
}

// Close writes the accumulated buffer to disk as a WAV file. Safe to call
// even if Write was never called (produces an empty-but-valid file).
func (d *Dumper) Close() (rerr error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	f, err := os.Create(d.path)
	if err != nil {
		return curated.Op(curated.Supervisor, "create wav dump file", "%w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && rerr == nil {
			rerr = curated.Op(curated.Supervisor, "close wav dump file", "%w", cerr)
		}
	}()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, numChannels, 1)

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: numChannels, SampleRate: sampleRate},
		Data:           d.samples,
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(buf); err != nil {
		return curated.Op(curated.Supervisor, "write wav dump samples", "%w", err)
	}
	if err := enc.Close(); err != nil {
		return curated.Op(curated.Supervisor, "finalise wav dump encoder", "%w", err)
	}

	logger.Logf(logger.Allow, "wavdump", "wrote %d samples to %s", len(d.samples), d.path)
	return nil
}
