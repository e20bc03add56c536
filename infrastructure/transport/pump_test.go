package transport

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPump_DeliversChunksThenError(t *testing.T) {
	r, w := io.Pipe()
	p := newPump(r)
	ctx := context.Background()

	go func() {
		w.Write([]byte("router>"))
		w.CloseWithError(io.EOF)
	}()

	chunk, err := p.read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "router>", chunk)

	_, err = p.read(ctx)
	assert.ErrorIs(t, err, io.EOF)
	_, err = p.read(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestPump_ReadHonoursContext(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	p := newPump(r)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.read(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
