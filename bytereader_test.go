package polyhttp

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn adapts a bytes.Reader (for Read) and a discarded bytes.Buffer
// (for Write) into the Conn interface ByteReader needs, without pulling in
// net.Pipe's goroutine-synchronization semantics for these single-shot
// buffered tests.
type fakeConn struct {
	*bytes.Reader
	written bytes.Buffer
}

func (c *fakeConn) Write(p []byte) (int, error) { return c.written.Write(p) }

func newFakeConn(data string) *fakeConn {
	return &fakeConn{Reader: bytes.NewReader([]byte(data))}
}

func TestByteReaderReadUntil(t *testing.T) {
	r := NewByteReader(newFakeConn("GET / HTTP/1.1\r\nHost: x\r\n\r\n"))
	line, err := r.ReadUntil('\n')
	require.NoError(t, err)
	assert.Equal(t, "GET / HTTP/1.1\r", string(line))
}

func TestByteReaderReadUntilGrowsPastBufferSize(t *testing.T) {
	long := bytes.Repeat([]byte("a"), minReadChunk*3)
	data := append(append([]byte{}, long...), '\n')
	r := NewByteReader(newFakeConn(string(data)))

	line, err := r.ReadUntil('\n')
	require.NoError(t, err)
	assert.Equal(t, long, line)
}

func TestByteReaderReadExact(t *testing.T) {
	r := NewByteReader(newFakeConn("hello world"))
	b, err := r.ReadExact(5)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	b, err = r.ReadExact(0)
	require.NoError(t, err)
	assert.Empty(t, b)
}

func TestByteReaderReadExactPastEOF(t *testing.T) {
	r := NewByteReader(newFakeConn("hi"))
	_, err := r.ReadExact(10)
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, byteStateClosed, r.State())
}

func TestByteReaderReadToEnd(t *testing.T) {
	r := NewByteReader(newFakeConn("all the rest"))
	b, err := r.ReadToEnd()
	require.NoError(t, err)
	assert.Equal(t, "all the rest", string(b))
	assert.Equal(t, byteStateClosed, r.State())

	// a second call on an already-closed stream returns empty, not an error.
	b2, err := r.ReadToEnd()
	require.NoError(t, err)
	assert.Empty(t, b2)
}

func TestByteReaderHasMore(t *testing.T) {
	r := NewByteReader(newFakeConn("x"))
	assert.True(t, r.HasMore())
	_, err := r.ReadExact(1)
	require.NoError(t, err)
	assert.False(t, r.HasMore())
}

func TestByteReaderPeekDiscard(t *testing.T) {
	r := NewByteReader(newFakeConn("abcdef"))
	peeked, err := r.Peek(3)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(peeked))

	require.NoError(t, r.Discard(3))
	rest, err := r.ReadExact(3)
	require.NoError(t, err)
	assert.Equal(t, "def", string(rest))
}

func TestByteReaderRelease(t *testing.T) {
	conn := newFakeConn("data")
	r := NewByteReader(conn)
	released := r.Release()
	assert.Same(t, conn, released)
	assert.Equal(t, byteStateClosed, r.State())
}
