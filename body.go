package httprpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// defaultChunkSize is the read size used when a Body is fed from an io.Reader.
const defaultChunkSize = 32 << 10

// ChunkSource yields the chunks of a payload in order. Next returns io.EOF
// once the source is exhausted.
type ChunkSource interface {
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

// Body is a lazy, single-consumption sequence of byte chunks. A nil *Body is
// an empty body. A Body must not be read from two goroutines at once.
type Body struct {
	src  ChunkSource
	done bool
}

// NewBody wraps a chunk source.
func NewBody(src ChunkSource) *Body {
	return &Body{src: src}
}

// EmptyBody returns a body with no chunks.
func EmptyBody() *Body {
	return &Body{done: true}
}

// BytesBody returns a single-chunk body holding b. An empty b yields an
// empty body.
func BytesBody(b []byte) *Body {
	if len(b) == 0 {
		return EmptyBody()
	}
	return &Body{src: &bytesSource{data: b}}
}

// JSONBody serializes v and returns it as a single-chunk body.
func JSONBody(v any) (*Body, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return BytesBody(data), nil
}

// ReaderBody streams chunks from rc as they arrive. rc is closed once the
// body is drained or closed.
func ReaderBody(rc io.ReadCloser) *Body {
	if rc == nil || rc == http.NoBody {
		return EmptyBody()
	}
	return &Body{src: &readerSource{rc: rc, size: defaultChunkSize}}
}

// Next returns the next chunk, or io.EOF once the body is exhausted. Every
// call advances the body; chunks are never returned twice.
func (b *Body) Next(ctx context.Context) ([]byte, error) {
	if b == nil || b.done || b.src == nil {
		return nil, io.EOF
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunk, err := b.src.Next(ctx)
		if errors.Is(err, io.EOF) {
			b.done = true
			//nolint:errcheck,gosec // source is exhausted
			b.src.Close()
			if len(chunk) > 0 {
				return chunk, nil
			}
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}
		if len(chunk) > 0 {
			return chunk, nil
		}
	}
}

// Collect drains the remaining chunks into one buffer. After partial
// consumption via Next it returns only the unread remainder.
func (b *Body) Collect(ctx context.Context) ([]byte, error) {
	var buf bytes.Buffer
	for {
		chunk, err := b.Next(ctx)
		if errors.Is(err, io.EOF) {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
		buf.Write(chunk)
	}
}

// Close releases the underlying source without reading it.
func (b *Body) Close() error {
	if b == nil || b.done || b.src == nil {
		return nil
	}
	b.done = true
	return b.src.Close()
}

// Len reports the total size when it is known without reading.
func (b *Body) Len() (int64, bool) {
	if b == nil || b.done || b.src == nil {
		return 0, true
	}
	if s, ok := b.src.(interface{ Len() int }); ok {
		return int64(s.Len()), true
	}
	return 0, false
}

// Reader adapts the remaining chunks to an io.ReadCloser, for handing a Body
// to net/http.
func (b *Body) Reader(ctx context.Context) io.ReadCloser {
	return &bodyReader{ctx: ctx, body: b}
}

type bytesSource struct {
	data []byte
	sent bool
}

func (s *bytesSource) Next(context.Context) ([]byte, error) {
	if s.sent {
		return nil, io.EOF
	}
	s.sent = true
	return s.data, nil
}

func (s *bytesSource) Close() error { return nil }

func (s *bytesSource) Len() int {
	if s.sent {
		return 0
	}
	return len(s.data)
}

type readerSource struct {
	rc   io.ReadCloser
	size int
}

func (s *readerSource) Next(context.Context) ([]byte, error) {
	buf := make([]byte, s.size)
	n, err := s.rc.Read(buf)
	return buf[:n], err
}

func (s *readerSource) Close() error { return s.rc.Close() }

type bodyReader struct {
	ctx  context.Context
	body *Body
	buf  []byte
}

func (r *bodyReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		chunk, err := r.body.Next(r.ctx)
		if err != nil {
			return 0, err
		}
		r.buf = chunk
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

func (r *bodyReader) Close() error { return r.body.Close() }
