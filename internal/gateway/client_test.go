package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"nowink/internal/types"
)

func TestStartStreamSendsTokenAndDecodes(t *testing.T) {
	var gotAuth string
	var gotReq types.StartStreamReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/streams/start" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(types.Stream{ID: "s-1", Title: gotReq.Title, IsLive: true})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.SetAuthToken("tok")
	stream, err := c.StartStream(context.Background(), types.StartStreamReq{
		Title: "Moment at 10:45", Latitude: 40.7128, Longitude: -74.0060, IsPublic: true,
	})
	if err != nil {
		t.Fatalf("StartStream: %v", err)
	}
	if stream.ID != "s-1" || !stream.IsLive {
		t.Fatalf("unexpected stream: %+v", stream)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotReq.Latitude != 40.7128 || !gotReq.IsPublic {
		t.Fatalf("unexpected request body: %+v", gotReq)
	}
}

func TestAPIErrorVersusTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"stream not found"}`))
	}))

	c := NewClient(srv.URL)
	_, err := c.GetStream(context.Background(), "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T %v", err, err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "stream not found" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		t.Fatal("api error reported as transport error")
	}

	srv.Close()
	_, err = c.GetStream(context.Background(), "missing")
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %T %v", err, err)
	}
	if errors.As(err, &apiErr) {
		t.Fatal("transport error reported as api error")
	}
}

func TestRequestTimeoutIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClientWithHTTP(srv.URL, &http.Client{Timeout: 20 * time.Millisecond})
	_, err := c.Health(context.Background())
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestSaveStreamMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/streams/s-1/save" {
			t.Errorf("path = %s", r.URL.Path)
		}
		file, header, err := r.FormFile("video")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "mp4-bytes" || header.Header.Get("Content-Type") != "video/mp4" {
			t.Errorf("unexpected part: %q %q", data, header.Header.Get("Content-Type"))
		}
		_ = json.NewEncoder(w).Encode(types.SaveStreamResp{
			StreamID: "s-1",
			Mint:     types.MintInfo{Status: "pending"},
			Message:  "minting",
		})
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL).SaveStream(context.Background(), "s-1", Artifact{
		FileName:    "clip.mp4",
		ContentType: "video/mp4",
		Body:        strings.NewReader("mp4-bytes"),
	})
	if err != nil {
		t.Fatalf("SaveStream: %v", err)
	}
	if resp.StreamID != "s-1" || resp.Mint.Status != "pending" || resp.Mint.MintAddress != "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestListNFTsQuery(t *testing.T) {
	cases := []struct {
		name string
		req  types.ListNFTsReq
		want string
	}{
		{"no filter", types.ListNFTsReq{}, ""},
		{"radius", types.ListNFTsReq{Latitude: 40.7128, Longitude: -74.006, RadiusKm: 5}, "latitude=40.7128&longitude=-74.006&radius_km=5"},
		{"creator and paging", types.ListNFTsReq{Creator: "abc", Limit: 10, Offset: 20}, "creator=abc&limit=10&offset=20"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var gotQuery string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotQuery = r.URL.RawQuery
				_, _ = w.Write([]byte(`{"nfts":[{"mint_address":"m1"}],"total":1}`))
			}))
			defer srv.Close()

			resp, err := NewClient(srv.URL).ListNFTs(context.Background(), tc.req)
			if err != nil {
				t.Fatal(err)
			}
			if gotQuery != tc.want {
				t.Fatalf("query = %q, want %q", gotQuery, tc.want)
			}
			if len(resp.NFTs) != 1 || resp.NFTs[0].MintAddress != "m1" {
				t.Fatalf("unexpected response: %+v", resp)
			}
		})
	}
}

func TestFailingPollDoesNotBlockOtherOperations(t *testing.T) {
	var starts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/streams/start" {
			starts.Add(1)
			_ = json.NewEncoder(w).Encode(types.Stream{ID: "s-2", IsLive: true})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"database unavailable"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	for i := 0; i < 50; i++ {
		if _, err := c.GetStream(context.Background(), "s-1"); err == nil {
			t.Fatal("expected getStream to fail")
		}
	}

	stream, err := c.StartStream(context.Background(), types.StartStreamReq{Title: "after outage"})
	if err != nil {
		t.Fatalf("StartStream after failing polls: %v", err)
	}
	if stream.ID != "s-2" || starts.Load() != 1 {
		t.Fatalf("stream = %+v, server saw %d starts", stream, starts.Load())
	}
}
