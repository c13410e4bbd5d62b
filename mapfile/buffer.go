package mapfile

import (
	"encoding/binary"
	"io"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/yehan2002/errors"
)

// readBuffer holds the bytes of one logical record (the header or a single block)
// and decodes the primitive values stored in the map file.
//
// Reads past the end of the buffered data set a sticky error: every later read
// returns a zero value and err reports ErrBufferUnderflow.
type readBuffer struct {
	src     io.ReaderAt
	data    []byte
	pos     int
	maxSize int
	log     logrus.FieldLogger

	err error
}

func newReadBuffer(src io.ReaderAt, maxSize int, log logrus.FieldLogger) *readBuffer {
	return &readBuffer{src: src, maxSize: maxSize, log: log}
}

// fill reads exactly length bytes starting at offset and resets the read position.
// ok is false if length exceeds the maximum buffer size. This is not an error, the
// caller is expected to skip the record.
func (b *readBuffer) fill(offset int64, length int) (ok bool, err error) {
	if length < 0 || length > b.maxSize {
		b.log.WithFields(logrus.Fields{"offset": offset, "length": length, "max": b.maxSize}).
			Warn("mapfile: requested read exceeds maximum buffer size")
		return false, nil
	}

	if cap(b.data) < length {
		b.data = make([]byte, length)
	}
	b.data = b.data[:length]
	b.pos, b.err = 0, nil

	n, err := b.src.ReadAt(b.data, offset)
	if n == length {
		// io.ReaderAt may return io.EOF when the read ends exactly at the end of the file
		return true, nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	b.data = b.data[:0]
	return false, errors.Wrap("mapfile: unable to read file", err)
}

// reset replaces the buffered data with p.
func (b *readBuffer) reset(p []byte) { b.data, b.pos, b.err = p, 0, nil }

// need checks that n more bytes can be read.
func (b *readBuffer) need(n int) bool {
	if b.err != nil {
		return false
	}
	if n < 0 || b.pos+n > len(b.data) {
		b.err = ErrBufferUnderflow
		return false
	}
	return true
}

func (b *readBuffer) readByte() byte {
	if !b.need(1) {
		return 0
	}
	v := b.data[b.pos]
	b.pos++
	return v
}

func (b *readBuffer) readInt8() int8 { return int8(b.readByte()) }

func (b *readBuffer) readShort() int16 {
	if !b.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(b.data[b.pos:])
	b.pos += 2
	return int16(v)
}

func (b *readBuffer) readInt() int32 {
	if !b.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(b.data[b.pos:])
	b.pos += 4
	return int32(v)
}

func (b *readBuffer) readLong() int64 {
	if !b.need(8) {
		return 0
	}
	v := binary.BigEndian.Uint64(b.data[b.pos:])
	b.pos += 8
	return int64(v)
}

// readBytes returns the next n bytes. The returned slice aliases the buffer.
func (b *readBuffer) readBytes(n int) []byte {
	if !b.need(n) {
		return nil
	}
	v := b.data[b.pos : b.pos+n]
	b.pos += n
	return v
}

// readUnsignedInt reads an unsigned variable length integer.
// Every byte carries 7 bits of payload, the high bit marks that another byte follows.
func (b *readBuffer) readUnsignedInt() uint32 {
	var v uint32
	var shift uint
	for b.need(1) {
		c := b.data[b.pos]
		b.pos++

		if c&0x80 == 0 {
			return v | uint32(c)<<shift
		}

		v |= uint32(c&0x7f) << shift
		if shift += 7; shift > 28 {
			b.err = ErrInvalidVarint
		}
	}
	return 0
}

// readSignedInt reads a signed variable length integer.
// It is encoded like readUnsignedInt except that the last byte only carries 6 bits
// of payload and uses 0x40 as the sign bit.
func (b *readBuffer) readSignedInt() int32 {
	var v uint32
	var shift uint
	for b.need(1) {
		c := b.data[b.pos]
		b.pos++

		if c&0x80 == 0 {
			v |= uint32(c&0x3f) << shift
			if c&0x40 != 0 {
				return -int32(v)
			}
			return int32(v)
		}

		v |= uint32(c&0x7f) << shift
		if shift += 7; shift > 28 {
			b.err = ErrInvalidVarint
		}
	}
	return 0
}

// readUTF8 reads a string prefixed with its length as an unsigned variable length integer.
// An invalid string is skipped and reported with ErrInvalidString, it does not set
// the sticky error.
func (b *readBuffer) readUTF8() (string, error) {
	n := b.readUnsignedInt()
	if b.err != nil {
		return "", b.err
	}
	return b.readUTF8Len(int(n))
}

// readUTF8Len reads a string of n bytes.
func (b *readBuffer) readUTF8Len(n int) (string, error) {
	if n > b.maxSize {
		b.err = ErrBufferSize
		return "", b.err
	}
	p := b.readBytes(n)
	if b.err != nil {
		return "", b.err
	}
	if !utf8.Valid(p) {
		return "", ErrInvalidString
	}
	return string(p), nil
}

func (b *readBuffer) skip(n int) {
	if b.need(n) {
		b.pos += n
	}
}

func (b *readBuffer) position() int { return b.pos }

func (b *readBuffer) setPosition(p int) {
	if b.err != nil {
		return
	}
	if p < 0 || p > len(b.data) {
		b.err = ErrBufferUnderflow
		return
	}
	b.pos = p
}

func (b *readBuffer) len() int { return len(b.data) }
