package cache

import (
	"io"
	"sync/atomic"

	"github.com/valyala/bytebufferpool"
)

// Artifact a reference counted value stored in a TileCache.
// The cache increments the reference count when the artifact is stored and when it is
// returned by Get. Callers of Get must call DecrementRefCount once they are done with it.
type Artifact interface {
	IncrementRefCount()
	DecrementRefCount()
}

// Payload an artifact backed by a pooled byte buffer.
// The buffer is returned to the pool once the reference count drops to zero.
type Payload struct {
	buf  atomic.Pointer[bytebufferpool.ByteBuffer]
	refs int32
}

var _ Artifact = &Payload{}

// NewPayload creates a payload containing a copy of p.
// The payload starts with a reference count of 0.
func NewPayload(p []byte) *Payload {
	b := bytebufferpool.Get()
	b.Write(p)
	return newPayload(b)
}

// ReadPayload creates a payload containing everything read from r.
func ReadPayload(r io.Reader) (*Payload, error) {
	b := bytebufferpool.Get()
	if _, err := b.ReadFrom(r); err != nil {
		bytebufferpool.Put(b)
		return nil, err
	}
	return newPayload(b), nil
}

func newPayload(b *bytebufferpool.ByteBuffer) *Payload {
	p := &Payload{}
	p.buf.Store(b)
	return p
}

// Bytes returns the content of the payload.
// This returns nil once the payload has been freed.
// The returned slice must not be used after the reference held by the caller is released.
func (p *Payload) Bytes() []byte {
	if b := p.buf.Load(); b != nil {
		return b.B
	}
	return nil
}

// Len returns the size of the payload.
func (p *Payload) Len() int { return len(p.Bytes()) }

// WriteTo writes the payload to w.
func (p *Payload) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(p.Bytes())
	return int64(n), err
}

// RefCount returns the current reference count.
func (p *Payload) RefCount() int32 { return atomic.LoadInt32(&p.refs) }

// Freed returns if the buffer was returned to the pool.
func (p *Payload) Freed() bool { return p.buf.Load() == nil }

// IncrementRefCount increments the reference count.
func (p *Payload) IncrementRefCount() { atomic.AddInt32(&p.refs, 1) }

// DecrementRefCount decrements the reference count and frees the buffer when it reaches 0.
func (p *Payload) DecrementRefCount() {
	n := atomic.AddInt32(&p.refs, -1)
	if n < 0 {
		panic("cache: negative reference count")
	}

	if n == 0 {
		if b := p.buf.Swap(nil); b != nil {
			bytebufferpool.Put(b)
		}
	}
}
