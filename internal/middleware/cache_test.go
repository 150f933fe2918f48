package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureWriterCountsPastLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 10}

	for i := 0; i < 3; i++ {
		n, err := cw.Write(bytes.Repeat([]byte("x"), 5))
		require.NoError(t, err)
		assert.Equal(t, 5, n)
	}

	// The client got everything; the buffer stopped at the limit but
	// size kept counting, which is how oversized responses are kept
	// out of the cache.
	assert.Equal(t, 15, rec.Body.Len())
	assert.Equal(t, int64(15), cw.size)
	assert.LessOrEqual(t, int64(cw.buf.Len()), cw.limit)
}

func TestCaptureWriterFlagsExactLimitOverrun(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 10}

	_, err := cw.Write(bytes.Repeat([]byte("x"), 10))
	require.NoError(t, err)
	assert.Equal(t, int64(10), cw.size)

	// One more byte after filling the buffer exactly must still push
	// size past the limit, or a truncated body would look complete.
	_, err = cw.Write([]byte("y"))
	require.NoError(t, err)
	assert.Equal(t, int64(11), cw.size)
	assert.Equal(t, 10, cw.buf.Len())
}

func TestCaptureWriterUnlimited(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 0}

	_, err := cw.Write(bytes.Repeat([]byte("x"), 4096))
	require.NoError(t, err)
	assert.Equal(t, 4096, cw.buf.Len())
	assert.Equal(t, int64(4096), cw.size)
}
