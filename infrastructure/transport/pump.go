package transport

import (
	"context"
	"io"
	"sync"
)

// BufferSize is the largest chunk handed to the stream reader
const BufferSize = 4096

// pump copies a blocking reader into a channel so reads can honour a context
type pump struct {
	chunks chan string
	stop   chan struct{}
	once   sync.Once
	err    error
}

func newPump(r io.Reader) *pump {
	p := &pump{
		chunks: make(chan string, 64),
		stop:   make(chan struct{}),
	}
	go p.run(r)
	return p
}

func (p *pump) run(r io.Reader) {
	buf := make([]byte, BufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			select {
			case p.chunks <- string(buf[:n]):
			case <-p.stop:
				return
			}
		}
		if err != nil {
			// err is published before the close, so readers that observe it see err
			p.err = err
			close(p.chunks)
			return
		}
	}
}

// read returns the next chunk, the reader error once drained, or ctx.Err()
func (p *pump) read(ctx context.Context) (string, error) {
	select {
	case chunk, ok := <-p.chunks:
		if !ok {
			return "", p.err
		}
		return chunk, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (p *pump) close() {
	p.once.Do(func() { close(p.stop) })
}
