package executor

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestHTTPUploader(t *testing.T) {
	var gotAuth, gotPath, gotType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"uri":"https://gateway.irys.xyz/abc"}`))
	}))
	defer srv.Close()

	u := NewHTTPUploader(srv.URL+"/", "secret")

	uri, err := u.UploadJSON(context.Background(), []byte(`{"name":"x"}`))
	if err != nil {
		t.Fatalf("UploadJSON: %v", err)
	}
	if uri != "https://gateway.irys.xyz/abc" {
		t.Fatalf("uri = %s", uri)
	}
	if gotAuth != "Bearer secret" || gotPath != "/upload/json" || gotType != "application/json" {
		t.Fatalf("unexpected request: auth=%q path=%q type=%q", gotAuth, gotPath, gotType)
	}

	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("video-bytes"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := u.UploadFile(context.Background(), path, "video/mp4"); err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if gotPath != "/upload/file" || gotType != "video/mp4" || gotBody != "video-bytes" {
		t.Fatalf("unexpected file upload: path=%q type=%q body=%q", gotPath, gotType, gotBody)
	}
}

func TestHTTPUploaderErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`},
		{"empty uri", http.StatusOK, `{"uri":""}`},
		{"not json", http.StatusOK, `uploaded`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			if _, err := NewHTTPUploader(srv.URL, "").UploadJSON(context.Background(), []byte(`{}`)); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	if _, err := NewHTTPUploader("", "").UploadJSON(context.Background(), []byte(`{}`)); err == nil {
		t.Fatal("expected error for unconfigured uploader")
	}
}

func TestBuildMetadata(t *testing.T) {
	ts := time.Date(2025, 1, 2, 10, 45, 0, 0, time.UTC)
	doc := BuildMetadata(Moment{
		Title:                "Moment at 10:45",
		CreatorWallet:        "Creator1",
		PlatformWallet:       "Platform1",
		Latitude:             40.7128,
		Longitude:            -74.0060,
		Timestamp:            ts,
		DurationSeconds:      12,
		VideoURI:             "ar://video",
		SellerFeeBasisPoints: 500,
	})

	if doc.Symbol != "NOWINK" || doc.AnimationURL != "ar://video" || doc.SellerFeeBasisPoints != 500 {
		t.Fatalf("unexpected document: %+v", doc)
	}
	want := map[string]string{
		"Latitude":      "40.712800",
		"Longitude":     "-74.006000",
		"Timestamp":     "2025-01-02T10:45:00Z",
		"Duration":      "12",
		"Location Type": "GPS Coordinate",
		"App":           "now.ink",
	}
	for trait, value := range want {
		if got, ok := doc.Attribute(trait); !ok || got != value {
			t.Fatalf("attribute %s = %q, want %q", trait, got, value)
		}
	}
	if doc.Properties.Category != "video" || len(doc.Properties.Files) != 1 || doc.Properties.Files[0].Type != "video/mp4" {
		t.Fatalf("unexpected properties: %+v", doc.Properties)
	}
	if len(doc.Properties.Creators) != 2 || doc.Properties.Creators[0].Address != "Platform1" {
		t.Fatalf("unexpected creators: %+v", doc.Properties.Creators)
	}
}
