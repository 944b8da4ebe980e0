package rw

import (
	"bytes"
	"errors"
	"io"
)

// ErrLimitExceeded signals that the underlying reader has more
// available bytes than the expected limit
var ErrLimitExceeded = errors.New("Read limit exceeded")

// ReadLimitProps sets up the behaviour of the limit reader
type ReadLimitProps struct {
	// FailOnExceed defines whether the LimitReader should return an
	// error if the underlying reader has more bytes than the limit
	FailOnExceed bool

	// Limit is the maximum number of bytes that can be read from the
	// reader and copied to the provided buffer
	Limit int64
}

// readerLimit returns the limit for the wrapped io.LimitedReader. When
// the reader must fail on exceeding the limit it is allowed to read one
// byte more, which is the only way to know whether the source has more
// data than the limit
func (p ReadLimitProps) readerLimit() int64 {
	if p.FailOnExceed {
		return p.Limit + 1
	}

	return p.Limit
}

// NewLimitReader returns a new LimitReader
func NewLimitReader(reader io.Reader, props ReadLimitProps) *LimitReader {
	return &LimitReader{
		failOnExceed: props.FailOnExceed,
		limit:        props.Limit,
		reader:       io.LimitReader(reader, props.readerLimit()),
	}
}

// LimitReader is an io.Reader wrapper that ensures that
// no more than limit bytes are read from the reader
type LimitReader struct {
	failOnExceed bool
	count        int64
	limit        int64
	reader       io.Reader
}

// Read is the implementation of Reader for LimitReader
func (r *LimitReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.count += int64(n)
	if r.failOnExceed && r.count > r.limit {
		return 0, ErrLimitExceeded
	}

	return n, err
}

// CopyWithLimit copies props.Limit bytes from an io.Reader to an io.Writer.
func CopyWithLimit(w io.Writer, r io.Reader, props ReadLimitProps) (int64, error) {
	if r == nil {
		return 0, nil
	}

	if w == nil {
		return 0, errors.New("writer cannot be nil")
	}

	n, err := io.CopyN(w, r, props.readerLimit())
	if err != nil && err != io.EOF {
		return 0, err
	}

	if n > props.Limit {
		return 0, ErrLimitExceeded
	}

	return n, nil
}

// ReadAllWithLimit reads the whole reader into memory. It fails
// with ErrLimitExceeded if the reader has more than props.Limit bytes
// and FailOnExceed is set
func ReadAllWithLimit(r io.Reader, props ReadLimitProps) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := CopyWithLimit(&buf, r, props); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
