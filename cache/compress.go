package cache

import (
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/valyala/bytebufferpool"
	"github.com/yehan2002/errors"
)

// CompressMethod the compression method used for persisted artifacts.
// The method is stored as the first byte of every file in the store.
type CompressMethod byte

// DefaultCompression the default compression method to be used
const DefaultCompression = CompressionZlib

// supported methods
const (
	CompressionGzip CompressMethod = 1 + iota
	CompressionZlib
	CompressionNone
	CompressionZstd
)

func (c CompressMethod) String() string {
	switch c {
	case CompressionGzip:
		return "gzip"
	case CompressionZlib:
		return "zlib"
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	default:
		return "unsupported"
	}
}

// ParseCompressMethod returns the compression method with the given name.
func ParseCompressMethod(s string) (CompressMethod, error) {
	for _, c := range []CompressMethod{CompressionGzip, CompressionZlib, CompressionNone, CompressionZstd} {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, errors.Error("cache: unsupported compression method " + s)
}

var (
	gzipDecompressPool = decompressorPool{new: func(src io.Reader) (readCloseResetter, error) {
		return gzip.NewReader(src)
	}}
	zlibDecompressPool = decompressorPool{new: func(src io.Reader) (readCloseResetter, error) {
		t, err := zlib.NewReader(src)
		if err != nil {
			return nil, err
		}
		return &zlibReadResetWrapper{t.(zlibReader)}, err
	}}

	gzipCompressPool = sync.Pool{New: func() interface{} { return gzip.NewWriter(io.Discard) }}
	zlibCompressPool = sync.Pool{New: func() interface{} { return zlib.NewWriter(io.Discard) }}

	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

// decompressorPool a pool of readCloseResetters that can be used to decompress data
type decompressorPool struct {
	sync.Pool
	new func(io.Reader) (readCloseResetter, error)
}

func (d *decompressorPool) get(src io.Reader) (r readCloseResetter, err error) {
	if reader := d.Pool.Get(); reader != nil {
		t := reader.(readCloseResetter)
		r, err = t, t.Reset(src)
	} else {
		r, err = d.new(src)
	}
	return
}

// compress compresses src and appends it to dst.
func (c CompressMethod) compress(dst *bytebufferpool.ByteBuffer, src []byte) (err error) {
	var pool *sync.Pool
	switch c {
	case CompressionGzip:
		pool = &gzipCompressPool
	case CompressionZlib:
		pool = &zlibCompressPool
	case CompressionNone:
		_, err = dst.Write(src)
		return err
	case CompressionZstd:
		dst.B = zstdEncoder.EncodeAll(src, dst.B)
		return nil
	default:
		return errors.Error("cache: unsupported compression method")
	}

	w := pool.Get().(compressor)
	defer pool.Put(w)

	w.Reset(dst)
	if _, err = w.Write(src); err == nil {
		err = w.Close()
	}
	return errors.Wrap("cache: unable to compress", err)
}

// decompress decompresses src and appends it to dst.
func (c CompressMethod) decompress(dst *bytebufferpool.ByteBuffer, src io.Reader) (err error) {
	var pool *decompressorPool
	switch c {
	case CompressionGzip:
		pool = &gzipDecompressPool
	case CompressionZlib:
		pool = &zlibDecompressPool
	case CompressionNone:
		_, err = dst.ReadFrom(src)
		return errors.Wrap("cache: unable to read", err)
	case CompressionZstd:
		tmp := bytebufferpool.Get()
		defer bytebufferpool.Put(tmp)
		if _, err = tmp.ReadFrom(src); err == nil {
			dst.B, err = zstdDecoder.DecodeAll(tmp.B, dst.B)
		}
		return errors.Wrap("cache: unable to decompress", err)
	default:
		return errors.Error("cache: unsupported compression method")
	}

	r, err := pool.get(src)
	if err != nil {
		return errors.Wrap("cache: unable to decompress", err)
	}
	defer pool.Put(r)

	_, err = dst.ReadFrom(r)
	return errors.Wrap("cache: unable to decompress", err)
}

type compressor interface {
	io.WriteCloser
	Reset(io.Writer)
}

var _ compressor = &gzip.Writer{}
var _ compressor = &zlib.Writer{}

type zlibReader interface {
	io.ReadCloser
	zlib.Resetter
}

// zlibReadResetWrapper a wrapper around zlib.Reader to make it implement the readResetCloser interface.
type zlibReadResetWrapper struct{ zlibReader }

func (z *zlibReadResetWrapper) Reset(r io.Reader) error { return z.zlibReader.Reset(r, nil) }

type readCloseResetter interface {
	io.Reader
	io.Closer
	Reset(io.Reader) error
}

var _ readCloseResetter = &zlibReadResetWrapper{}
var _ readCloseResetter = &gzip.Reader{}
