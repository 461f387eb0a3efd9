package asr

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return New(u.Hostname(), port, "recognize")
}

func TestRecognize(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/recognize", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		var req map[string]string
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "/data/speech/abc.wav", req["path"])

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"text":"今天天气不错"}`)
	})

	text, err := client.Recognize(context.Background(), "/data/speech/abc.wav")
	require.NoError(t, err)
	assert.Equal(t, "今天天气不错", text)
}

func TestRecognizeMissingFile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := client.Recognize(context.Background(), "/data/speech/missing.wav")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "语音文件不存在")
}

func TestRecognizeServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Recognize(context.Background(), "/data/speech/x.wav")
	assert.Error(t, err)
}
