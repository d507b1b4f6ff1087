package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"nowink/internal/errorx"
	"nowink/internal/logic/auth"
	"nowink/internal/svc"
	"nowink/internal/svc/svctest"
	"nowink/internal/types"

	"github.com/zeromicro/go-zero/rest/httpx"
	"github.com/zeromicro/go-zero/rest/pathvar"
)

const creator = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"

func TestMain(m *testing.M) {
	httpx.SetErrorHandlerCtx(errorx.Handler)
	os.Exit(m.Run())
}

func withWallet(r *http.Request, wallet string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), auth.ClaimWalletAddress, wallet))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func startStream(t *testing.T, svcCtx *svc.ServiceContext) types.Stream {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/streams/start", strings.NewReader(`{"title":"Pier","latitude":40.7,"longitude":-74,"is_public":true}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	StartStreamHandler(svcCtx)(rec, withWallet(req, creator))
	if rec.Code != http.StatusOK {
		t.Fatalf("start status = %d body=%s", rec.Code, rec.Body.String())
	}
	var s types.Stream
	decodeBody(t, rec, &s)
	return s
}

func TestHealthHandler(t *testing.T) {
	svcCtx, _ := svctest.New(t.TempDir())
	rec := httptest.NewRecorder()
	HealthHandler(svcCtx)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp types.HealthResp
	decodeBody(t, rec, &resp)
	if resp.Status != "ok" || resp.Network != "devnet" {
		t.Fatalf("health = %+v", resp)
	}
}

func TestStartStreamHandlerRequiresWallet(t *testing.T) {
	svcCtx, fakes := svctest.New(t.TempDir())
	req := httptest.NewRequest(http.MethodPost, "/streams/start", strings.NewReader(`{"latitude":1,"longitude":2}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	StartStreamHandler(svcCtx)(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if fakes.Streams.Count() != 0 {
		t.Fatalf("stream must not be created")
	}
}

func TestStartStreamHandlerBadBody(t *testing.T) {
	svcCtx, _ := svctest.New(t.TempDir())
	req := httptest.NewRequest(http.MethodPost, "/streams/start", strings.NewReader(`{"title":"no coords"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	StartStreamHandler(svcCtx)(rec, withWallet(req, creator))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var resp types.ErrorResp
	decodeBody(t, rec, &resp)
	if resp.Error == "" {
		t.Fatalf("error body missing")
	}
}

func TestGetStreamHandler(t *testing.T) {
	svcCtx, _ := svctest.New(t.TempDir())
	s := startStream(t, svcCtx)

	tests := []struct {
		name string
		id   string
		want int
	}{
		{name: "found", id: s.ID, want: http.StatusOK},
		{name: "missing", id: "nope", want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := pathvar.WithVars(httptest.NewRequest(http.MethodGet, "/streams/"+tt.id, nil), map[string]string{"id": tt.id})
			rec := httptest.NewRecorder()
			GetStreamHandler(svcCtx)(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestSaveStreamHandler(t *testing.T) {
	svcCtx, fakes := svctest.New(t.TempDir())
	s := startStream(t, svcCtx)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="video"; filename="moment.mp4"`)
	h.Set("Content-Type", "video/mp4")
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	part.Write([]byte("not-really-an-mp4"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/streams/"+s.ID+"/save", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = pathvar.WithVars(withWallet(req, creator), map[string]string{"id": s.ID})
	rec := httptest.NewRecorder()
	SaveStreamHandler(svcCtx)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var resp types.SaveStreamResp
	decodeBody(t, rec, &resp)
	if resp.StreamID != s.ID || resp.Mint.Status != "pending" {
		t.Fatalf("resp = %+v", resp)
	}
	if len(fakes.Minter.Requests) != 1 {
		t.Fatalf("mint calls = %d", len(fakes.Minter.Requests))
	}
}

func TestSaveStreamHandlerMissingVideo(t *testing.T) {
	svcCtx, fakes := svctest.New(t.TempDir())
	s := startStream(t, svcCtx)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("title", "no video")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/streams/"+s.ID+"/save", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = pathvar.WithVars(withWallet(req, creator), map[string]string{"id": s.ID})
	rec := httptest.NewRecorder()
	SaveStreamHandler(svcCtx)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(fakes.Minter.Requests) != 0 {
		t.Fatalf("minter must not run")
	}
}

func TestListNFTsHandlerQuery(t *testing.T) {
	svcCtx, _ := svctest.New(t.TempDir())
	rec := httptest.NewRecorder()
	ListNFTsHandler(svcCtx)(rec, httptest.NewRequest(http.MethodGet, "/nfts?latitude=40.7&longitude=-74&radius_km=5&limit=10", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var resp types.ListNFTsResp
	decodeBody(t, rec, &resp)
	if resp.Total != 0 || resp.NFTs == nil {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestGetNFTHandlerNotFound(t *testing.T) {
	svcCtx, _ := svctest.New(t.TempDir())
	req := pathvar.WithVars(httptest.NewRequest(http.MethodGet, "/nfts/x", nil), map[string]string{"mint_address": "x"})
	rec := httptest.NewRecorder()
	GetNFTHandler(svcCtx)(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}
