package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/carlosrabelo/netterm/domain/entities"
	"github.com/carlosrabelo/netterm/domain/ports"
)

// CleanOptions selects the optional steps of the output pipeline
type CleanOptions struct {
	StripCommand bool
	StripPrompt  bool
	BasePrompt   string
	Prompt       Pattern
}

// StreamReader turns the transport byte stream into command/response exchanges
type StreamReader struct {
	transport ports.Transport
	profile   entities.VendorProfile
	logger    ports.Logger
	rawOutput bool
}

// NewStreamReader wraps a transport with the line rules of profile
func NewStreamReader(transport ports.Transport, profile entities.VendorProfile, logger ports.Logger, rawOutput bool) *StreamReader {
	return &StreamReader{
		transport: transport,
		profile:   profile,
		logger:    logger,
		rawOutput: rawOutput,
	}
}

// Normalize returns cmd with exactly one platform terminator
func (r *StreamReader) Normalize(cmd string) string {
	return NormalizeCommand(cmd, r.profile.EffectiveTerminator())
}

// Write sends the normalized command
func (r *StreamReader) Write(cmd string) error {
	if err := r.transport.Send(r.Normalize(cmd)); err != nil {
		return r.streamError(err)
	}
	return nil
}

// ReadUntil accumulates chunks until pattern matches the whole buffer.
// It returns the buffer and the index of the alternative that matched.
func (r *StreamReader) ReadUntil(ctx context.Context, pattern Pattern) (string, int, error) {
	if pattern.Empty() {
		return "", -1, fmt.Errorf("read until: empty pattern")
	}
	var buf strings.Builder
	for {
		chunk, err := r.transport.Read(ctx)
		if err != nil {
			return "", -1, r.streamError(err)
		}
		if chunk == "" {
			continue
		}
		if r.rawOutput {
			r.logger.Debug("raw read", "chunk", chunk)
		}
		buf.WriteString(chunk)

		view := buf.String()
		if r.profile.StripANSI {
			view = StripANSI(view)
		}
		if idx := pattern.Match(view); idx >= 0 {
			return buf.String(), idx, nil
		}
	}
}

// WriteAndReadUntil sends cmd and reads until pattern matches
func (r *StreamReader) WriteAndReadUntil(ctx context.Context, cmd string, pattern Pattern) (string, error) {
	if err := r.Write(cmd); err != nil {
		return "", err
	}
	out, _, err := r.ReadUntil(ctx, pattern)
	return out, err
}

// ReadUntilPromptOr reads until prompt or alt matches. The returned index
// points into alt, or is -1 when the prompt ended the read.
func (r *StreamReader) ReadUntilPromptOr(ctx context.Context, prompt, alt Pattern) (string, int, error) {
	out, idx, err := r.ReadUntil(ctx, alt.Or(prompt))
	if err != nil {
		return "", -1, err
	}
	if idx >= alt.Len() {
		idx = -1
	}
	return out, idx, nil
}

// WriteAndReadUntilPromptOr sends cmd then behaves like ReadUntilPromptOr
func (r *StreamReader) WriteAndReadUntilPromptOr(ctx context.Context, cmd string, prompt, alt Pattern) (string, int, error) {
	if err := r.Write(cmd); err != nil {
		return "", -1, err
	}
	return r.ReadUntilPromptOr(ctx, prompt, alt)
}

// Drain consumes whatever arrives until the line stays quiet for the given interval
func (r *StreamReader) Drain(ctx context.Context, quiet time.Duration) string {
	var buf strings.Builder
	for {
		readCtx, cancel := context.WithTimeout(ctx, quiet)
		chunk, err := r.transport.Read(readCtx)
		cancel()
		if err != nil {
			return buf.String()
		}
		if r.rawOutput && chunk != "" {
			r.logger.Debug("raw drain", "chunk", chunk)
		}
		buf.WriteString(chunk)
	}
}

// Clean runs the output pipeline: escape codes, line endings, echo, prompt
func (r *StreamReader) Clean(raw, cmd string, opts CleanOptions) string {
	out := raw
	if r.profile.StripANSI {
		out = StripANSI(out)
	}
	out = NormalizeLineEndings(out)
	if r.profile.StripStrayCR {
		out = StripStrayCR(out)
	}
	if r.profile.CollapseBlankLines {
		out = CollapseBlankLines(out)
	}
	if opts.StripCommand {
		out = StripCommand(r.Normalize(cmd), out)
	}
	if opts.StripPrompt {
		out = StripPrompt(out, opts.BasePrompt, opts.Prompt)
	}
	return out
}

// Host is the transport identity used in errors
func (r *StreamReader) Host() string {
	return r.transport.Host()
}

func (r *StreamReader) streamError(err error) error {
	var disconnect *entities.DisconnectError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &entities.TimeoutError{Host: r.Host()}
	case errors.As(err, &disconnect):
		return err
	case errors.Is(err, io.EOF):
		return &entities.DisconnectError{Host: r.Host(), Reason: "connection closed by remote host", Err: err}
	case errors.Is(err, context.Canceled):
		return err
	default:
		return &entities.DisconnectError{Host: r.Host(), Reason: err.Error(), Err: err}
	}
}
