// Package capture records audio from a microphone, or accepts an existing
// audio file, and produces exactly one audio payload per capture.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/artisan-upload/artisan/internal/media"
)

var (
	ErrDeviceUnavailable = errors.New("audio capture device unavailable")
	ErrAlreadyCapturing  = errors.New("capture already in progress")
	ErrNotCapturing      = errors.New("no capture in progress")
	ErrEmptyRecording    = errors.New("no audio was captured")
)

const chunkSize = 4096

// Device opens a raw audio stream. Closing the stream ends the capture.
type Device interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Visualizer receives every captured chunk while recording.
type Visualizer interface {
	Feed(chunk []byte)
}

type Recorder struct {
	// OnAudio receives the complete recording or attached file.
	OnAudio func(media.Blob)

	device Device
	viz    Visualizer

	mu      sync.Mutex
	stream  io.ReadCloser
	chunks  [][]byte
	done    chan struct{}
	readErr error
}

// NewRecorder returns a recorder for device. viz may be nil.
func NewRecorder(device Device, viz Visualizer) *Recorder {
	return &Recorder{device: device, viz: viz}
}

// Capturing reports whether a recording is running.
func (r *Recorder) Capturing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stream != nil
}

// Start opens the device and begins collecting chunks. If the device cannot
// be opened nothing changes and the error wraps ErrDeviceUnavailable.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream != nil {
		return ErrAlreadyCapturing
	}

	stream, err := r.device.Open(ctx)
	if err != nil {
		if errors.Is(err, ErrDeviceUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	r.stream = stream
	r.chunks = nil
	r.readErr = nil
	r.done = make(chan struct{})
	go r.read(stream, r.done)

	slog.Debug("Capture started")
	return nil
}

func (r *Recorder) read(stream io.Reader, done chan struct{}) {
	defer close(done)
	buf := make([]byte, chunkSize)
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			r.mu.Lock()
			r.chunks = append(r.chunks, chunk)
			r.mu.Unlock()
			if r.viz != nil {
				r.viz.Feed(chunk)
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) && !errors.Is(err, os.ErrClosed) {
				r.mu.Lock()
				r.readErr = err
				r.mu.Unlock()
			}
			return
		}
	}
}

// Stop ends the capture and joins every chunk into one recording.
func (r *Recorder) Stop() (media.Blob, error) {
	r.mu.Lock()
	stream, done := r.stream, r.done
	r.mu.Unlock()
	if stream == nil {
		return media.Blob{}, ErrNotCapturing
	}

	if err := stream.Close(); err != nil {
		slog.Debug("Closing capture stream", "err", err)
	}
	<-done

	r.mu.Lock()
	data := bytes.Join(r.chunks, nil)
	readErr := r.readErr
	r.stream = nil
	r.chunks = nil
	r.done = nil
	r.mu.Unlock()

	if readErr != nil {
		return media.Blob{}, fmt.Errorf("capture failed: %w", readErr)
	}
	if len(data) == 0 {
		return media.Blob{}, ErrEmptyRecording
	}

	blob := media.Blob{Name: "recording.wav", ContentType: "audio/wav", Data: data}
	slog.Debug("Capture stopped", "bytes", len(data))
	if r.OnAudio != nil {
		r.OnAudio(blob)
	}
	return blob, nil
}

// AttachFile hands over an existing recording after checking it is audio.
func (r *Recorder) AttachFile(b media.Blob) error {
	if err := media.Check(b, media.KindAudio); err != nil {
		return err
	}
	if r.OnAudio != nil {
		r.OnAudio(b)
	}
	return nil
}
