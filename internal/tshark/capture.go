// Package tshark streams dissected packets out of a capture file by running Wireshark's
// tshark and decoding its PDML output.
package tshark

import (
	"bytes"
	"capdissect/internal/models"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
)

// Source runs tshark over one capture file and yields its packets in order.
type Source struct {
	file   string
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr bytes.Buffer
	dec    *Decoder
	log    *slog.Logger
	done   bool
}

// Open validates opts and starts tshark reading file. The process ends with ctx.
func Open(ctx context.Context, file string, opts Options, log *slog.Logger) (*Source, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	bin := opts.Binary
	if bin == "" {
		bin = "tshark"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	args := opts.Args(file)
	s := &Source{file: file, log: log}
	s.cmd = exec.CommandContext(ctx, path, args...)
	s.cmd.Stderr = &s.stderr

	s.stdout, err = s.cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdout pipe: %w", err)
	}

	log.Debug("starting tshark", "path", path, "args", strings.Join(args, " "))
	if err := s.cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start tshark: %w", err)
	}

	s.dec = NewDecoder(s.stdout)
	return s, nil
}

// Next returns the next packet. A tshark failure, such as a rejected display filter,
// surfaces here with tshark's stderr attached.
func (s *Source) Next() (*models.Packet, error) {
	if s.done {
		return nil, io.EOF
	}

	pkt, err := s.dec.Next()
	if err == nil {
		return pkt, nil
	}

	if errors.Is(err, io.EOF) {
		s.done = true
		if werr := s.wait(); werr != nil {
			return nil, werr
		}
		return nil, io.EOF
	}

	// A decode error usually means tshark died mid-document; its exit status says why.
	s.done = true
	io.Copy(io.Discard, s.stdout)
	if werr := s.wait(); werr != nil {
		return nil, werr
	}
	return nil, fmt.Errorf("read %q: %w", s.file, err)
}

// Close stops tshark if it is still running and releases its pipes.
func (s *Source) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	s.stdout.Close()
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	s.cmd.Wait()
	return nil
}

func (s *Source) wait() error {
	err := s.cmd.Wait()
	if err == nil {
		return nil
	}
	msg := strings.TrimSpace(s.stderr.String())
	if msg == "" {
		return fmt.Errorf("read %q: tshark: %w", s.file, err)
	}
	return fmt.Errorf("read %q: tshark: %w: %s", s.file, err, msg)
}
