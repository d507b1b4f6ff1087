package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"nowink/internal/constant"
	"nowink/internal/errorx"
	"nowink/internal/model"
	"nowink/internal/svc/svctest"
	"nowink/internal/types"

	"github.com/panjf2000/ants/v2"
)

const (
	creator = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"
	other   = "DRpbCBMxVnDK7maPM5tGv6MvB3v1sRMC86PZ8okm21hy"
)

func statusOf(err error) int {
	var ce *errorx.CodeError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return 0
}

func startStream(t *testing.T, l *StreamLogic) *types.Stream {
	t.Helper()
	s, err := l.StartStream(&types.StartStreamReq{Title: "Sunset", Latitude: 40.7128, Longitude: -74.006, IsPublic: true}, creator)
	if err != nil {
		t.Fatalf("StartStream: %v", err)
	}
	return s
}

func video(contentType string) Video {
	body := "fake-mp4-bytes"
	return Video{ContentType: contentType, Size: int64(len(body)), Body: strings.NewReader(body)}
}

func TestStartStream(t *testing.T) {
	svcCtx, fakes := svctest.New(t.TempDir())
	l := NewStreamLogic(context.Background(), svcCtx)

	first := startStream(t, l)
	second := startStream(t, l)
	if first.ID == second.ID {
		t.Fatalf("each start must create a new stream, got %q twice", first.ID)
	}
	if !first.IsLive || first.CreatorWallet != creator {
		t.Fatalf("unexpected stream %+v", first)
	}
	if fakes.Streams.Count() != 2 {
		t.Fatalf("stored streams = %d", fakes.Streams.Count())
	}
}

func TestStartStreamDefaultsTitle(t *testing.T) {
	svcCtx, _ := svctest.New(t.TempDir())
	l := NewStreamLogic(context.Background(), svcCtx)
	l.now = func() time.Time { return time.Date(2026, 3, 1, 18, 5, 0, 0, time.UTC) }

	s, err := l.StartStream(&types.StartStreamReq{Latitude: 1, Longitude: 2}, creator)
	if err != nil {
		t.Fatalf("StartStream: %v", err)
	}
	if s.Title != "Moment at 18:05" {
		t.Fatalf("title = %q", s.Title)
	}
}

func TestStartStreamRejectsOutOfRange(t *testing.T) {
	svcCtx, fakes := svctest.New(t.TempDir())
	l := NewStreamLogic(context.Background(), svcCtx)

	for _, req := range []types.StartStreamReq{
		{Latitude: 91, Longitude: 0},
		{Latitude: 0, Longitude: -181},
	} {
		if _, err := l.StartStream(&req, creator); statusOf(err) != http.StatusBadRequest {
			t.Fatalf("req %+v: err = %v", req, err)
		}
	}
	if fakes.Streams.Count() != 0 {
		t.Fatalf("no stream should be stored")
	}
}

func TestEndStream(t *testing.T) {
	svcCtx, _ := svctest.New(t.TempDir())
	l := NewStreamLogic(context.Background(), svcCtx)
	s := startStream(t, l)

	if _, err := l.EndStream(s.ID, other); statusOf(err) != http.StatusForbidden {
		t.Fatalf("non-owner err = %v", err)
	}
	if _, err := l.EndStream("missing", creator); statusOf(err) != http.StatusNotFound {
		t.Fatalf("missing err = %v", err)
	}

	ended, err := l.EndStream(s.ID, creator)
	if err != nil {
		t.Fatalf("EndStream: %v", err)
	}
	if ended.IsLive || ended.EndedAt == nil {
		t.Fatalf("stream still live: %+v", ended)
	}

	live, err := l.ListLive()
	if err != nil {
		t.Fatalf("ListLive: %v", err)
	}
	if live.Total != 0 {
		t.Fatalf("live = %d", live.Total)
	}
}

func TestSaveStreamMints(t *testing.T) {
	svcCtx, fakes := svctest.New(t.TempDir())
	l := NewStreamLogic(context.Background(), svcCtx)
	s := startStream(t, l)

	resp, err := l.SaveStream(s.ID, creator, video("video/mp4"))
	if err != nil {
		t.Fatalf("SaveStream: %v", err)
	}
	if resp.Mint.Status != string(constant.MintStatusPending) {
		t.Fatalf("status = %q", resp.Mint.Status)
	}

	got, err := l.GetStream(s.ID)
	if err != nil {
		t.Fatalf("GetStream: %v", err)
	}
	if got.IsLive {
		t.Fatalf("save must end the stream")
	}
	if got.MintStatus != string(constant.MintStatusMinted) || got.MintAddress != svctest.MintAddress {
		t.Fatalf("stream after mint job = %+v", got)
	}
	if got.VideoURI == "" || got.MetadataURI == "" {
		t.Fatalf("uris not recorded: %+v", got)
	}

	if len(fakes.Minter.Requests) != 1 {
		t.Fatalf("mint calls = %d", len(fakes.Minter.Requests))
	}
	req := fakes.Minter.Requests[0]
	if req.SellerFeeBasisPoints == nil || *req.SellerFeeBasisPoints != constant.ProductionSellerFeeBasisPoints {
		t.Fatalf("fee = %v", req.SellerFeeBasisPoints)
	}
	if req.CreatorWallet != creator || req.Name != "Sunset" || req.Network != "devnet" {
		t.Fatalf("mint request = %+v", req)
	}

	var doc types.MetadataDocument
	if err := json.Unmarshal(fakes.Storage.Documents[req.MetadataURI], &doc); err != nil {
		t.Fatalf("metadata document: %v", err)
	}
	if doc.AnimationURL != req.VideoURI {
		t.Fatalf("animation_url = %q, want %q", doc.AnimationURL, req.VideoURI)
	}
	if len(doc.Properties.Creators) != 2 || doc.Properties.Creators[0].Address != svctest.PlatformWallet {
		t.Fatalf("creators = %+v", doc.Properties.Creators)
	}

	if _, err := os.Stat(fakes.Storage.Files[0]); err != nil {
		t.Fatalf("video not written: %v", err)
	}
}

func TestSaveStreamMintFailureIsRecorded(t *testing.T) {
	svcCtx, fakes := svctest.New(t.TempDir())
	fakes.Minter.FailWith = "insufficient balance"
	l := NewStreamLogic(context.Background(), svcCtx)
	s := startStream(t, l)

	if _, err := l.SaveStream(s.ID, creator, video("video/quicktime")); err != nil {
		t.Fatalf("SaveStream: %v", err)
	}
	got, _ := l.GetStream(s.ID)
	if got.MintStatus != string(constant.MintStatusFailed) || got.MintError != "insufficient balance" {
		t.Fatalf("stream = %+v", got)
	}
	if got.MintAddress != "" {
		t.Fatalf("failed mint must not record an address")
	}

	// 失败后允许重新保存
	fakes.Minter.FailWith = ""
	if _, err := l.SaveStream(s.ID, creator, video("video/mp4")); err != nil {
		t.Fatalf("retry SaveStream: %v", err)
	}
	got, _ = l.GetStream(s.ID)
	if got.MintStatus != string(constant.MintStatusMinted) {
		t.Fatalf("retry status = %q", got.MintStatus)
	}
}

func TestSaveStreamUploadFailureIsRecorded(t *testing.T) {
	svcCtx, fakes := svctest.New(t.TempDir())
	fakes.Storage.Err = errors.New("uploader down")
	l := NewStreamLogic(context.Background(), svcCtx)
	s := startStream(t, l)

	if _, err := l.SaveStream(s.ID, creator, video("video/mp4")); err != nil {
		t.Fatalf("SaveStream: %v", err)
	}
	got, _ := l.GetStream(s.ID)
	if got.MintStatus != string(constant.MintStatusFailed) {
		t.Fatalf("status = %q", got.MintStatus)
	}
	if len(fakes.Minter.Requests) != 0 {
		t.Fatalf("minter must not run without uploads")
	}
}

func TestSaveStreamValidation(t *testing.T) {
	tests := []struct {
		name   string
		wallet string
		video  Video
		want   int
	}{
		{name: "unsupported type", wallet: creator, video: video("video/webm"), want: http.StatusBadRequest},
		{name: "too large", wallet: creator, video: Video{ContentType: "video/mp4", Size: constant.MaxVideoBytes + 1, Body: strings.NewReader("")}, want: http.StatusBadRequest},
		{name: "not owner", wallet: other, video: video("video/mp4"), want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svcCtx, fakes := svctest.New(t.TempDir())
			l := NewStreamLogic(context.Background(), svcCtx)
			s := startStream(t, l)

			_, err := l.SaveStream(s.ID, tt.wallet, tt.video)
			if got := statusOf(err); got != tt.want {
				t.Fatalf("status = %d (%v), want %d", got, err, tt.want)
			}
			if len(fakes.Minter.Requests) != 0 {
				t.Fatalf("rejected save must not mint")
			}
		})
	}
}

func TestSaveStreamTwiceConflicts(t *testing.T) {
	svcCtx, _ := svctest.New(t.TempDir())
	l := NewStreamLogic(context.Background(), svcCtx)
	s := startStream(t, l)

	if _, err := l.SaveStream(s.ID, creator, video("video/mp4")); err != nil {
		t.Fatalf("SaveStream: %v", err)
	}
	if _, err := l.SaveStream(s.ID, creator, video("video/mp4")); statusOf(err) != http.StatusConflict {
		t.Fatalf("second save err = %v, want 409", err)
	}
}

// staleStreams hands the first two readers the same pre-save snapshot, so
// both saves pass the status check before either writes.
type staleStreams struct {
	model.StreamsDao
	snapshot model.Streams

	mu      sync.Mutex
	reads   int
	arrived sync.WaitGroup
}

func (s *staleStreams) FindOne(ctx context.Context, id string) (*model.Streams, error) {
	s.mu.Lock()
	s.reads++
	n := s.reads
	s.mu.Unlock()
	if n > 2 {
		return s.StreamsDao.FindOne(ctx, id)
	}
	s.arrived.Done()
	s.arrived.Wait()
	row := s.snapshot
	return &row, nil
}

func TestConcurrentSavesMintOnce(t *testing.T) {
	svcCtx, fakes := svctest.New(t.TempDir())
	s := startStream(t, NewStreamLogic(context.Background(), svcCtx))

	snapshot, err := fakes.Streams.FindOne(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	stale := &staleStreams{StreamsDao: fakes.Streams, snapshot: *snapshot}
	stale.arrived.Add(2)
	svcCtx.StreamsDao = stale

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = NewStreamLogic(context.Background(), svcCtx).SaveStream(s.ID, creator, video("video/mp4"))
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case statusOf(err) == http.StatusConflict:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != 1 {
		t.Fatalf("ok = %d, conflicts = %d, want 1 and 1", ok, conflicts)
	}
	if len(fakes.Minter.Requests) != 1 {
		t.Fatalf("mint calls = %d, want 1", len(fakes.Minter.Requests))
	}
}

type busyRunner struct{}

func (busyRunner) Submit(func()) error { return ants.ErrPoolOverload }

func TestSaveStreamWhenMintQueueIsFull(t *testing.T) {
	svcCtx, fakes := svctest.New(t.TempDir())
	svcCtx.MintPool = busyRunner{}
	l := NewStreamLogic(context.Background(), svcCtx)
	s := startStream(t, l)

	_, err := l.SaveStream(s.ID, creator, video("video/mp4"))
	if statusOf(err) != http.StatusServiceUnavailable {
		t.Fatalf("err = %v, want 503", err)
	}
	got, _ := l.GetStream(s.ID)
	if got.MintStatus != string(constant.MintStatusFailed) || got.MintError != "mint queue unavailable" {
		t.Fatalf("stream = %+v", got)
	}
	if len(fakes.Minter.Requests) != 0 {
		t.Fatalf("rejected job must not mint")
	}

	// 队列空闲后可以重新保存
	svcCtx.MintPool = svctest.InlineRunner{}
	if _, err := l.SaveStream(s.ID, creator, video("video/mp4")); err != nil {
		t.Fatalf("retry SaveStream: %v", err)
	}
	got, _ = l.GetStream(s.ID)
	if got.MintStatus != string(constant.MintStatusMinted) {
		t.Fatalf("retry status = %q", got.MintStatus)
	}
}

func TestMintJobTimeoutIsRecorded(t *testing.T) {
	svcCtx, fakes := svctest.New(t.TempDir())
	svcCtx.Config.Minter.Timeout = 50 * time.Millisecond
	fakes.Minter.Block = true
	l := NewStreamLogic(context.Background(), svcCtx)
	s := startStream(t, l)

	start := time.Now()
	if _, err := l.SaveStream(s.ID, creator, video("video/mp4")); err != nil {
		t.Fatalf("SaveStream: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("mint job ran %s past its timeout", elapsed)
	}

	got, _ := l.GetStream(s.ID)
	if got.MintStatus != string(constant.MintStatusFailed) {
		t.Fatalf("status = %q, want failed", got.MintStatus)
	}
	if !strings.Contains(got.MintError, "timed out") {
		t.Fatalf("mint error = %q", got.MintError)
	}
}
