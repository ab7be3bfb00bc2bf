package http

import (
	"bytes"
	"io"
	"strings"
)

type bodyKind int

const (
	bodyNone bodyKind = iota
	bodyText
	bodyBytes
	bodyStream
)

// Body is a request payload. The zero value means no body. Construct one
// with Text, Bytes or Stream; the three carry their representation
// explicitly rather than being sniffed from an interface{} value.
type Body struct {
	kind   bodyKind
	text   string
	data   []byte
	stream io.Reader
}

// Text builds a Body from a string.
func Text(s string) Body {
	return Body{kind: bodyText, text: s}
}

// Bytes builds a Body from a byte slice. The slice is not copied.
func Bytes(b []byte) Body {
	return Body{kind: bodyBytes, data: b}
}

// Stream builds a Body from a reader. The reader is consumed exactly
// once when the request is sent; it cannot be replayed across redirects
// the way Text and Bytes bodies can. If r is an io.Closer it is closed
// after the send.
func Stream(r io.Reader) Body {
	return Body{kind: bodyStream, stream: r}
}

// IsZero reports whether the body is empty.
func (b Body) IsZero() bool {
	return b.kind == bodyNone
}

// Len returns the payload size in bytes, or -1 when the size is unknown
// (stream bodies).
func (b Body) Len() int64 {
	switch b.kind {
	case bodyText:
		return int64(len(b.text))
	case bodyBytes:
		return int64(len(b.data))
	case bodyStream:
		return -1
	default:
		return 0
	}
}

// source returns a fresh reader over the payload, or nil for an empty
// body. Text and bytes bodies return replayable readers that
// http.NewRequest recognizes, so Content-Length and GetBody come for
// free; stream bodies are wrapped so the concrete reader type stays
// hidden and the single-shot contract holds even over seekable readers.
func (b Body) source() io.Reader {
	switch b.kind {
	case bodyText:
		return strings.NewReader(b.text)
	case bodyBytes:
		return bytes.NewReader(b.data)
	case bodyStream:
		return streamReader{b.stream}
	default:
		return nil
	}
}

type streamReader struct {
	io.Reader
}

// Close closes the underlying reader when it is a closer, so handing a
// file to Stream still releases it after the send.
func (s streamReader) Close() error {
	if c, ok := s.Reader.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
