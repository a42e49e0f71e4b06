package capture

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// DefaultCommand records 16 kHz mono WAV to stdout.
var DefaultCommand = []string{"arecord", "-q", "-f", "S16_LE", "-r", "16000", "-c", "1", "-t", "wav", "-"}

// CommandDevice captures audio from an external recorder that writes WAV
// data to stdout, such as arecord or ffmpeg.
type CommandDevice struct {
	Command []string
}

// NewCommandDevice parses a command line; an empty string selects
// DefaultCommand.
func NewCommandDevice(command string) *CommandDevice {
	args := strings.Fields(command)
	if len(args) == 0 {
		args = DefaultCommand
	}
	return &CommandDevice{Command: args}
}

func (d *CommandDevice) Open(ctx context.Context) (io.ReadCloser, error) {
	if len(d.Command) == 0 {
		return nil, fmt.Errorf("%w: no capture command", ErrDeviceUnavailable)
	}
	path, err := exec.LookPath(d.Command[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found", ErrDeviceUnavailable, d.Command[0])
	}

	cmd := exec.CommandContext(ctx, path, d.Command[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	return &commandStream{cmd: cmd, stdout: stdout}, nil
}

// commandStream reads the recorder's stdout. Close asks the recorder to
// finish so it can flush; the process is reaped once stdout hits EOF.
type commandStream struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	wait   sync.Once
}

func (s *commandStream) Read(p []byte) (int, error) {
	n, err := s.stdout.Read(p)
	if err != nil {
		s.reap()
	}
	return n, err
}

func (s *commandStream) Close() error {
	if s.cmd.Process == nil {
		return nil
	}
	if err := s.cmd.Process.Signal(os.Interrupt); err != nil {
		return s.cmd.Process.Kill()
	}
	return nil
}

func (s *commandStream) reap() {
	s.wait.Do(func() {
		// Interrupted recorders exit non-zero.
		_ = s.cmd.Wait()
	})
}
