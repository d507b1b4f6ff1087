package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"nowink/internal/constant"
	"nowink/internal/types"

	"github.com/zeromicro/go-zero/rest/httpc"
)

// Artifact is a recorded video handed to saveStream.
type Artifact struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

// Client is a typed wrapper over the backend HTTP surface. It never retries.
type Client struct {
	cli     *http.Client
	baseURL string

	mu    sync.RWMutex
	token string
}

func NewClient(baseURL string) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: constant.RequestTimeout})
}

// NewClientWithHTTP is NewClient with a caller supplied http.Client.
func NewClientWithHTTP(baseURL string, cli *http.Client) *Client {
	return &Client{cli: cli, baseURL: strings.TrimRight(baseURL, "/")}
}

// service 每个后端地址、每个操作一个熔断器，getStream 轮询的 5xx 不会熔断 saveStream
func (c *Client) service(op string) httpc.Service {
	return httpc.NewServiceWithClient("nowink-gateway "+c.baseURL+" "+op, c.cli, c.withAuth)
}

// SetAuthToken sets the bearer token sent on every subsequent request.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) withAuth(r *http.Request) *http.Request {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func (c *Client) GetNonce(ctx context.Context, walletAddress string) (types.NonceResp, error) {
	var resp types.NonceResp
	err := c.doJSON(ctx, "getNonce", http.MethodPost, "/auth/nonce", types.NonceReq{WalletAddress: walletAddress}, &resp)
	return resp, err
}

func (c *Client) Verify(ctx context.Context, req types.VerifyReq) (types.VerifyResp, error) {
	var resp types.VerifyResp
	err := c.doJSON(ctx, "verify", http.MethodPost, "/auth/verify", req, &resp)
	return resp, err
}

func (c *Client) StartStream(ctx context.Context, req types.StartStreamReq) (types.Stream, error) {
	var resp types.Stream
	err := c.doJSON(ctx, "startStream", http.MethodPost, "/streams/start", req, &resp)
	return resp, err
}

func (c *Client) EndStream(ctx context.Context, id string) (types.Stream, error) {
	var resp types.Stream
	err := c.doJSON(ctx, "endStream", http.MethodPost, "/streams/"+url.PathEscape(id)+"/end", nil, &resp)
	return resp, err
}

func (c *Client) GetStream(ctx context.Context, id string) (types.Stream, error) {
	var resp types.Stream
	err := c.doJSON(ctx, "getStream", http.MethodGet, "/streams/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// SaveStream uploads the video artifact for a stream as multipart field "video".
func (c *Client) SaveStream(ctx context.Context, id string, artifact Artifact) (types.SaveStreamResp, error) {
	const op = "saveStream"

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="video"; filename=%q`, artifact.FileName))
	header.Set("Content-Type", artifact.ContentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return types.SaveStreamResp{}, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := io.Copy(part, artifact.Body); err != nil {
		return types.SaveStreamResp{}, fmt.Errorf("%s: read artifact: %w", op, err)
	}
	if err := mw.Close(); err != nil {
		return types.SaveStreamResp{}, fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/streams/"+url.PathEscape(id)+"/save", &body)
	if err != nil {
		return types.SaveStreamResp{}, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp types.SaveStreamResp
	err = c.send(op, req, &resp)
	return resp, err
}

// ListNFTs lists minted moments. The geographic filter is sent only when RadiusKm > 0.
func (c *Client) ListNFTs(ctx context.Context, q types.ListNFTsReq) (types.ListNFTsResp, error) {
	values := url.Values{}
	if q.RadiusKm > 0 {
		values.Set("latitude", strconv.FormatFloat(q.Latitude, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(q.Longitude, 'f', -1, 64))
		values.Set("radius_km", strconv.FormatFloat(q.RadiusKm, 'f', -1, 64))
	}
	if q.Creator != "" {
		values.Set("creator", q.Creator)
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		values.Set("offset", strconv.Itoa(q.Offset))
	}

	path := "/nfts"
	if len(values) > 0 {
		path += "?" + values.Encode()
	}

	var resp types.ListNFTsResp
	err := c.doJSON(ctx, "listNFTs", http.MethodGet, path, nil, &resp)
	return resp, err
}

func (c *Client) GetNFT(ctx context.Context, mintAddress string) (types.NFT, error) {
	var resp types.NFT
	err := c.doJSON(ctx, "getNFT", http.MethodGet, "/nfts/"+url.PathEscape(mintAddress), nil, &resp)
	return resp, err
}

func (c *Client) Health(ctx context.Context) (types.HealthResp, error) {
	var resp types.HealthResp
	err := c.doJSON(ctx, "health", http.MethodGet, "/health", nil, &resp)
	return resp, err
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(op, req, out)
}

func (c *Client) send(op string, req *http.Request, out any) error {
	resp, err := c.service(op).DoRequest(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e types.ErrorResp
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
