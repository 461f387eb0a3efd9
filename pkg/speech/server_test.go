package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/breezechat/breeze/pkg/asr"
	"github.com/breezechat/breeze/pkg/log"
	"github.com/breezechat/breeze/pkg/rpc"
)

func init() {
	log.Init(log.Config{Level: log.ErrorLevel, JSONOutput: true})
}

// newTestServer wires a Server against a sidecar fake that reads the spooled
// audio file like the real one would.
func newTestServer(t *testing.T, handler http.HandlerFunc) *Server {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	return &Server{
		asr:    asr.New(u.Hostname(), port, "recognize"),
		tmpDir: t.TempDir(),
	}
}

func wavFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.wav"))
	require.NoError(t, err)
	return matches
}

func TestSpeechRecognition(t *testing.T) {
	payload := []byte("RIFF....WAVEfmt ")
	var received []byte

	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		data, err := os.ReadFile(req["path"])
		require.NoError(t, err, "sidecar reads the spooled file by path")
		received = data

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"text": "今天天气不错"})
	})

	rsp, err := srv.SpeechRecognition(context.Background(), &rpc.SpeechRecognitionReq{
		RequestID:     "r1",
		SpeechContent: payload,
	})
	require.NoError(t, err)
	require.True(t, rsp.Success, rsp.Errmsg)
	require.Equal(t, "r1", rsp.RequestID)
	require.Equal(t, "今天天气不错", rsp.RecognitionResult)
	require.Equal(t, payload, received)
	require.Empty(t, wavFiles(t, srv.tmpDir), "scratch file removed after success")
}

func TestSpeechRecognitionFailureKeepsFile(t *testing.T) {
	payload := []byte("not really audio")

	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	rsp, err := srv.SpeechRecognition(context.Background(), &rpc.SpeechRecognitionReq{
		RequestID:     "r2",
		SpeechContent: payload,
	})
	require.NoError(t, err)
	require.False(t, rsp.Success)
	require.Equal(t, "语音识别失败", rsp.Errmsg)

	kept := wavFiles(t, srv.tmpDir)
	require.Len(t, kept, 1, "scratch file kept for inspection")
	data, err := os.ReadFile(kept[0])
	require.NoError(t, err)
	require.Equal(t, payload, data)
}

func TestBuilderValidation(t *testing.T) {
	b := NewBuilder()
	_, err := b.Build()
	require.EqualError(t, err, "asr服务未设置")

	b.MakeASR("127.0.0.1", 9500, "recognize")
	_, err = b.Build()
	require.EqualError(t, err, "临时目录未设置")

	require.NoError(t, b.MakeTmp(t.TempDir()))
	_, err = b.Build()
	require.EqualError(t, err, "etcd服务未设置")
}
