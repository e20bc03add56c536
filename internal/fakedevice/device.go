// Package fakedevice provides a scripted network device that satisfies
// ports.Transport, for exercising sessions without a network.
package fakedevice

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// Handler produces the output of one command; the device adds echo and prompt
type Handler func(d *Device, cmd string) string

// Device is an in-memory CLI with modes, prompts and command handlers.
// Output is queued as chunks of at most ChunkSize bytes.
type Device struct {
	mu sync.Mutex

	host       string
	prompts    map[string]string
	handlers   map[string]Handler
	fallbacks  map[string]Handler
	mode       string
	banner     string
	terminator string
	newline    string
	chunkSize  int

	inbuf    string
	queue    []string
	notify   chan struct{}
	sent     []string
	awaiting func(answer string) string
	echoNext bool
	hold     bool
	silent   bool
	closed   bool

	connectErr error
	sendErr    error
}

// New creates a device in mode whose prompt is given
func New(host, mode, prompt string) *Device {
	return &Device{
		host:       host,
		prompts:    map[string]string{mode: prompt},
		handlers:   make(map[string]Handler),
		fallbacks:  make(map[string]Handler),
		mode:       mode,
		terminator: "\n",
		newline:    "\r\n",
		notify:     make(chan struct{}),
	}
}

// AddMode registers the prompt printed while in mode
func (d *Device) AddMode(mode, prompt string) *Device {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prompts[mode] = prompt
	return d
}

// Handle registers h for cmd in mode; mode "*" matches every mode
func (d *Device) Handle(mode, cmd string, h Handler) *Device {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[mode+"\x00"+cmd] = h
	return d
}

// Fallback registers h for every command in mode that has no handler
func (d *Device) Fallback(mode string, h Handler) *Device {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fallbacks[mode] = h
	return d
}

// Respond registers a fixed output for cmd in mode
func (d *Device) Respond(mode, cmd, output string) *Device {
	return d.Handle(mode, cmd, func(*Device, string) string { return output })
}

// Transition registers cmd in mode as a move to next
func (d *Device) Transition(mode, cmd, next string) *Device {
	return d.Handle(mode, cmd, func(d *Device, _ string) string {
		d.mode = next
		return ""
	})
}

// SetBanner sets the text printed before the first prompt
func (d *Device) SetBanner(banner string) *Device {
	d.banner = banner
	return d
}

// SetChunkSize splits every response into chunks of n bytes; 0 disables splitting
func (d *Device) SetChunkSize(n int) *Device {
	d.chunkSize = n
	return d
}

// SetTerminator sets the line terminator the device expects from the client
func (d *Device) SetTerminator(t string) *Device {
	d.terminator = t
	return d
}

// SetConnectError makes Connect fail
func (d *Device) SetConnectError(err error) *Device {
	d.connectErr = err
	return d
}

// SetSendError makes every Send fail
func (d *Device) SetSendError(err error) *Device {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sendErr = err
	return d
}

// SetSilent stops all output, including prompts
func (d *Device) SetSilent(silent bool) *Device {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.silent = silent
	return d
}

// Mode is the current mode; handlers may call it while the device is locked
func (d *Device) Mode() string {
	return d.mode
}

// SetMode moves the device to mode; meant for use inside handlers
func (d *Device) SetMode(mode string) {
	d.mode = mode
}

// Prompt is the prompt of the current mode
func (d *Device) Prompt() string {
	return d.prompts[d.mode]
}

// Ask prints question and routes the next input line to next instead of the
// command handlers. The answer is not echoed, like a password prompt.
func (d *Device) Ask(question string, next func(answer string) string) string {
	d.awaiting = next
	d.echoNext = false
	d.hold = true
	return question
}

// Confirm is Ask for questions whose answer the device echoes
func (d *Device) Confirm(question string, next func(answer string) string) string {
	d.Ask(question, next)
	d.echoNext = true
	return question
}

// Hold suppresses the prompt after the current response
func (d *Device) Hold() {
	d.hold = true
}

// Sent returns every line received so far, commands and answers alike
func (d *Device) Sent() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.sent...)
}

// ResetSent clears the record of received lines
func (d *Device) ResetSent() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = nil
}

// Connect prints the banner and the first prompt
func (d *Device) Connect(ctx context.Context) error {
	if d.connectErr != nil {
		return d.connectErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = false
	d.emit(d.banner + d.newline + d.Prompt())
	return nil
}

// Disconnect closes the stream; pending reads return io.EOF
func (d *Device) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.wake()
	return nil
}

// Host is the device identity
func (d *Device) Host() string {
	return d.host
}

// Send feeds client input; every complete line is processed in order
func (d *Device) Send(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sendErr != nil {
		return d.sendErr
	}
	if d.closed {
		return errors.New("use of closed connection")
	}
	d.inbuf += text
	for {
		i := strings.Index(d.inbuf, d.terminator)
		if i < 0 {
			return nil
		}
		line := d.inbuf[:i]
		d.inbuf = d.inbuf[i+len(d.terminator):]
		d.process(line)
	}
}

// Read returns the next queued chunk, blocking until output or ctx is done
func (d *Device) Read(ctx context.Context) (string, error) {
	for {
		d.mu.Lock()
		if len(d.queue) > 0 {
			chunk := d.queue[0]
			d.queue = d.queue[1:]
			d.mu.Unlock()
			return chunk, nil
		}
		if d.closed {
			d.mu.Unlock()
			return "", io.EOF
		}
		wait := d.notify
		d.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func (d *Device) process(line string) {
	d.sent = append(d.sent, line)
	d.hold = false

	if next := d.awaiting; next != nil {
		echo := ""
		if d.echoNext {
			echo = line
		}
		d.awaiting = nil
		out := next(line)
		d.respond(echo+d.newline, out)
		return
	}

	cmd := strings.TrimSpace(line)
	out := ""
	if cmd != "" {
		h, ok := d.handlers[d.mode+"\x00"+cmd]
		if !ok {
			h, ok = d.handlers["*\x00"+cmd]
		}
		if !ok {
			h, ok = d.fallbacks[d.mode]
		}
		if ok {
			out = h(d, cmd)
		} else {
			out = "% Invalid input detected"
		}
	}
	d.respond(line+d.newline, out)
}

func (d *Device) respond(echo, out string) {
	var b strings.Builder
	b.WriteString(echo)
	if out != "" {
		b.WriteString(strings.ReplaceAll(out, "\n", d.newline))
		if !d.hold && !strings.HasSuffix(out, "\n") {
			b.WriteString(d.newline)
		}
	}
	if !d.hold {
		b.WriteString(d.Prompt())
	}
	d.emit(b.String())
}

func (d *Device) emit(text string) {
	if d.silent || text == "" {
		return
	}
	if d.chunkSize <= 0 {
		d.queue = append(d.queue, text)
	} else {
		for len(text) > 0 {
			n := d.chunkSize
			if n > len(text) {
				n = len(text)
			}
			d.queue = append(d.queue, text[:n])
			text = text[n:]
		}
	}
	d.wake()
}

func (d *Device) wake() {
	close(d.notify)
	d.notify = make(chan struct{})
}
