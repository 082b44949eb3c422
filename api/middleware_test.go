package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	h := RequestLogger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.Error(w, "gone", http.StatusNotFound)
		case "/empty":
		default:
			_, _ = w.Write([]byte("hello"))
		}
	}))

	entry := func(path string) map[string]interface{} {
		buf.Reset()
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		return got
	}

	got := entry("/hello")
	assert.Equal(t, "GET", got["method"])
	assert.Equal(t, "/hello", got["path"])
	assert.Equal(t, 200.0, got["status"])
	assert.Equal(t, 5.0, got["size"])

	got = entry("/missing")
	assert.Equal(t, 404.0, got["status"])

	got = entry("/empty")
	assert.Equal(t, 200.0, got["status"])
	assert.Equal(t, 0.0, got["size"])
}
