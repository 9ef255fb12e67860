//go:build !headless

package main

import (
	"encoding/binary"
	"io"
	"math"
	"time"

	"github.com/ebitengine/oto/v3"
)

// otoPlayer plays through the system audio device.
type otoPlayer struct {
	ctx *oto.Context
}

func newPlayer(sampleRate int) (player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready
	return &otoPlayer{ctx: ctx}, nil
}

// Play blocks until samples have been played.
func (p *otoPlayer) Play(samples []float32) error {
	pl := p.ctx.NewPlayer(&sampleReader{samples: samples})
	defer pl.Close()

	pl.Play()
	for pl.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}
	return pl.Err()
}

func (p *otoPlayer) Close() error {
	return p.ctx.Suspend()
}

// sampleReader streams float32 samples as little-endian bytes.
type sampleReader struct {
	samples []float32
	pos     int
}

func (r *sampleReader) Read(b []byte) (int, error) {
	if r.pos >= len(r.samples) {
		return 0, io.EOF
	}
	n := min(len(b)/4, len(r.samples)-r.pos)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(r.samples[r.pos+i]))
	}
	r.pos += n
	return n * 4, nil
}
