package framestream

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w, err := NewWriter(&buf, 4, 2, 1)
	require.NoError(t, err)

	first := []byte{0, 1, 2, 3, 4, 5, 6, 7}
	second := []byte{10, 11, 12, 13, 14, 15, 16, 17}
	require.NoError(t, w.WriteFrame(first))
	require.NoError(t, w.WriteFrame(second))
	require.NoError(t, w.Flush())

	r, err := NewReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, 4, r.Width())
	assert.Equal(t, 2, r.Height())
	assert.Equal(t, 1, r.Channels())

	f1, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, first, f1.Pix)
	assert.True(t, f1.Valid())

	f2, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, second, f2.Pix)

	_, err = r.ReadFrame()
	assert.Equal(t, io.EOF, err)
}

func TestWriterRejectsBadGeometry(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	_, err := NewWriter(&buf, 0, 10, 1)
	assert.Error(t, err)

	_, err = NewWriter(&buf, 10, 10, 2)
	assert.Error(t, err)
}

func TestWriteFrameSizeMismatch(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w, err := NewWriter(&buf, 4, 4, 1)
	require.NoError(t, err)

	err = w.WriteFrame(make([]byte, 15))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want 16")
}

func TestReaderRejectsBadHeader(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"wrong magic":  "NOPE1 4 4 1\n",
		"zero width":   "WLFR1 0 4 1\n",
		"bad channels": "WLFR1 4 4 2\n",
		"not numbers":  "WLFR1 a b c\n",
		"huge width":   "WLFR1 999999 4 1\n",
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := NewReader(strings.NewReader(header))
			assert.Error(t, err)
		})
	}
}

func TestReadFrameTruncated(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w, err := NewWriter(&buf, 4, 4, 1)
	require.NoError(t, err)
	require.NoError(t, w.WriteFrame(make([]byte, 16)))
	require.NoError(t, w.Flush())

	// Drop the last 3 bytes of the only frame.
	data := buf.Bytes()[:buf.Len()-3]

	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	_, err = r.ReadFrame()
	require.Error(t, err)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestRoundTripRGB(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w, err := NewWriter(&buf, 2, 2, 3)
	require.NoError(t, err)

	frame := make([]byte, 12)
	for i := range frame {
		frame[i] = byte(i * 10)
	}
	require.NoError(t, w.WriteFrame(frame))
	require.NoError(t, w.Flush())

	r, err := NewReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Channels())

	f, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, frame, f.Pix)
	assert.True(t, f.Valid())
}
