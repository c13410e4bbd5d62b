package mapfile

import "github.com/yehan2002/errors"

const (
	// ErrInvalidFile the file is not a valid map file.
	// Errors returned by Open wrap this error and name the offending field.
	ErrInvalidFile = errors.Const("mapfile: invalid map file")
	// ErrClosed the map file has already been closed.
	ErrClosed = errors.Const("mapfile: file closed")
	// ErrBufferSize the requested read is larger than the maximum buffer size.
	ErrBufferSize = errors.Const("mapfile: read exceeds maximum buffer size")
	// ErrBufferUnderflow a value was read past the end of the buffered record.
	ErrBufferUnderflow = errors.Const("mapfile: read past end of buffer")
	// ErrInvalidString a string in the file is not valid UTF-8.
	ErrInvalidString = errors.Const("mapfile: invalid UTF-8 string")
	// ErrInvalidVarint a variable length integer does not fit in 32 bits.
	ErrInvalidVarint = errors.Const("mapfile: invalid variable length integer")
	// ErrInvalidTag a record references a tag id that is not in the tag dictionary.
	ErrInvalidTag = errors.Const("mapfile: invalid tag id")
	// ErrDuplicateFile the map file has already been added to the MultiMapFile.
	ErrDuplicateFile = errors.Const("mapfile: duplicate map file")
)
