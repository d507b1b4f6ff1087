package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"nowink/internal/constant"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest/httpc"
)

// Storage uploads artifacts to permanent storage and returns their content address.
type Storage interface {
	UploadJSON(ctx context.Context, data []byte) (string, error)
	UploadFile(ctx context.Context, path, contentType string) (string, error)
}

// HTTPUploader talks to an Arweave/Irys uploader service over HTTP.
type HTTPUploader struct {
	svc     httpc.Service
	baseURL string
}

func NewHTTPUploader(baseURL, apiKey string) *HTTPUploader {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")

	var opts []httpc.Option
	if apiKey != "" {
		opts = append(opts, func(r *http.Request) *http.Request {
			r.Header.Set("Authorization", "Bearer "+apiKey)
			return r
		})
	}

	return &HTTPUploader{
		svc:     httpc.NewServiceWithClient("storage-uploader", &http.Client{Timeout: constant.RequestTimeout}, opts...),
		baseURL: baseURL,
	}
}

// UploadJSON uploads a metadata document.
func (u *HTTPUploader) UploadJSON(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("metadata json is empty")
	}
	return u.upload(ctx, "/upload/json", "application/json", bytes.NewReader(data))
}

// UploadFile streams a local file to the uploader.
func (u *HTTPUploader) UploadFile(ctx context.Context, path, contentType string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return u.upload(ctx, "/upload/file", contentType, f)
}

func (u *HTTPUploader) upload(ctx context.Context, route, contentType string, body io.Reader) (string, error) {
	if u.baseURL == "" {
		return "", errors.New("storage uploader url is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+route, body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-App-Name", constant.AppName)

	resp, err := u.svc.DoRequest(req)
	if err != nil {
		return "", fmt.Errorf("upload to storage: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logx.WithContext(ctx).Errorf("storage upload failed: route=%s status=%d body=%s", route, resp.StatusCode, string(respBody))
		return "", fmt.Errorf("upload failed: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	var res struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(respBody, &res); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if res.URI == "" {
		return "", errors.New("upload response has empty uri")
	}

	logx.WithContext(ctx).Infof("storage upload ok: route=%s uri=%s", route, res.URI)
	return res.URI, nil
}
