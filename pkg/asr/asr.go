package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Client calls the speech-recognition sidecar. The sidecar reads the audio
// file itself, so the submitted path must be reachable from its filesystem.
type Client struct {
	http *http.Client
	url  string
}

// New builds a client for the recognition endpoint
// http://<host>:<port>/<serviceName>.
func New(host string, port int, serviceName string) *Client {
	return &Client{
		http: &http.Client{Timeout: 30 * time.Second},
		url:  fmt.Sprintf("http://%s:%d/%s", host, port, serviceName),
	}
}

// Recognize transcribes the audio file at path.
func (c *Client) Recognize(ctx context.Context, path string) (string, error) {
	body, err := json.Marshal(map[string]string{"path": path})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ASR请求失败: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest:
		return "", errors.New("语音文件不存在")
	case http.StatusInternalServerError:
		return "", errors.New("ASR服务内部错误")
	default:
		return "", fmt.Errorf("ASR未知错误, 状态码: %d", resp.StatusCode)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("解析JSON失败: %w", err)
	}
	return out.Text, nil
}
