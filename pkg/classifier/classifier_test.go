package classifier

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

// newTestClient points a Client at the given handler.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return New(u.Hostname(), port, "classify")
}

func TestClassify(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/classify", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		var req map[string]string
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "正常昵称", req["text"])

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"classification":"合规"}`)
	})

	verdict, err := client.Classify(context.Background(), "正常昵称")
	require.NoError(t, err)
	assert.Equal(t, "合规", verdict)
	assert.NotEqual(t, NonCompliant, verdict)
}

func TestClassifyNonCompliant(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"classification":"不合规"}`)
	})

	verdict, err := client.Classify(context.Background(), "敏感词")
	require.NoError(t, err)
	assert.Equal(t, NonCompliant, verdict)
}

func TestClassifyServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Classify(context.Background(), "x")
	assert.Error(t, err)
}
