package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"nowink/internal/gateway"
	"nowink/internal/poller"
	"nowink/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/threading"
)

// Identity exposes the connected wallet address.
type Identity interface {
	Address() (string, bool)
}

// Backend is the subset of the gateway the pipeline calls.
type Backend interface {
	StartStream(ctx context.Context, req types.StartStreamReq) (types.Stream, error)
	SaveStream(ctx context.Context, id string, artifact gateway.Artifact) (types.SaveStreamResp, error)
	GetStream(ctx context.Context, id string) (types.Stream, error)
	GetNFT(ctx context.Context, mintAddress string) (types.NFT, error)
}

// Watcher waits for a stream's mint to settle.
type Watcher interface {
	Poll(ctx context.Context, streamID string) poller.Result
}

// Capture is what the user produced when recording stopped.
type Capture struct {
	// 为空时按时间生成 "Moment at 15:04"
	Title    string
	IsPublic bool
	Artifact gateway.Artifact
}

type Option func(o *Orchestrator)

func WithWatcher(w Watcher) Option {
	return func(o *Orchestrator) { o.watcher = w }
}

// WithTransitionHook is called after every state change.
func WithTransitionHook(fn func(from, to State)) Option {
	return func(o *Orchestrator) { o.onTransition = fn }
}

func WithNow(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// Orchestrator drives one capture at a time from recording to a mint outcome.
type Orchestrator struct {
	wallet       Identity
	backend      Backend
	watcher      Watcher
	now          func() time.Time
	onTransition func(from, to State)

	mu        sync.Mutex
	state     State
	location  *Location
	startedAt time.Time
	stopTick  chan struct{}
	elapsed   atomic.Int64
}

func New(wallet Identity, backend Backend, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		wallet:  wallet,
		backend: backend,
		now:     time.Now,
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.watcher == nil {
		o.watcher = poller.New(backend)
	}
	return o
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Elapsed is the recording time shown to the user, in whole seconds.
func (o *Orchestrator) Elapsed() int64 {
	return o.elapsed.Load()
}

func (o *Orchestrator) setState(to State) {
	o.mu.Lock()
	from := o.state
	o.state = to
	o.mu.Unlock()

	if o.onTransition != nil {
		o.onTransition(from, to)
	}
}

// BeginRecording starts a capture. fix is the location known at record start
// and may be nil; a missing fix is reported when recording stops.
func (o *Orchestrator) BeginRecording(fix *Location) error {
	o.mu.Lock()
	if o.state != StateIdle && !o.state.Terminal() {
		o.mu.Unlock()
		return ErrBusy
	}
	if fix != nil {
		loc := *fix
		o.location = &loc
	} else {
		o.location = nil
	}
	o.startedAt = o.now()
	o.elapsed.Store(0)
	stop := make(chan struct{})
	o.stopTick = stop
	o.mu.Unlock()

	o.setState(StateRecording)

	threading.GoSafe(func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				o.elapsed.Add(1)
			}
		}
	})
	return nil
}

// StopRecording ends the capture and runs it through stream creation, upload
// and mint confirmation. It always returns exactly one terminal outcome.
func (o *Orchestrator) StopRecording(ctx context.Context, capture Capture) Outcome {
	logger := logx.WithContext(ctx)

	o.mu.Lock()
	if o.state != StateRecording {
		state := o.state
		o.mu.Unlock()
		return Outcome{Kind: OutcomeFailed, Err: fmt.Errorf("%w: state is %s", ErrNotRecording, state), Message: "Nothing is being recorded."}
	}
	close(o.stopTick)
	o.stopTick = nil
	fix := o.location
	duration := o.now().Sub(o.startedAt)
	o.mu.Unlock()

	// 步骤 1: 前置条件检查，任何后端调用之前
	o.setState(StateAwaitingLocation)
	if fix == nil {
		return o.fail(ctx, "", duration, ErrMissingLocation)
	}
	address, ok := o.wallet.Address()
	if !ok {
		return o.fail(ctx, "", duration, ErrWalletNotConnected)
	}

	title := capture.Title
	if title == "" {
		title = "Moment at " + o.startedAt.Format("15:04")
	}

	// 步骤 2: 创建 stream，不重试（非幂等）
	logger.Infof("步骤 2: 创建 stream title=%s creator=%s (%.6f, %.6f)", title, address, fix.Latitude, fix.Longitude)
	stream, err := o.backend.StartStream(ctx, types.StartStreamReq{
		Title:     title,
		Latitude:  fix.Latitude,
		Longitude: fix.Longitude,
		IsPublic:  capture.IsPublic,
	})
	if err != nil {
		return o.fail(ctx, "", duration, err)
	}
	if stream.ID == "" {
		return o.fail(ctx, "", duration, ErrMissingStreamID)
	}
	o.setState(StateStreamStarted)

	// 步骤 3: 上传视频
	o.setState(StateUploading)
	logger.Infof("步骤 3: 上传视频 stream=%s", stream.ID)
	saved, err := o.backend.SaveStream(ctx, stream.ID, capture.Artifact)
	if err != nil {
		return o.fail(ctx, stream.ID, duration, err)
	}

	// 步骤 4: 等待服务端异步铸造
	o.setState(StateMinting)
	mintAddress := saved.Mint.MintAddress
	if mintAddress == "" {
		logger.Infof("步骤 4: 铸造处理中，开始轮询 stream=%s", stream.ID)
		res := o.watcher.Poll(ctx, stream.ID)
		switch res.Outcome {
		case poller.OutcomeConfirmed:
			mintAddress = res.MintAddress
		case poller.OutcomeFailed:
			return o.fail(ctx, stream.ID, duration, fmt.Errorf("mint failed: %s", res.Reason))
		default:
			o.setState(StateTimedOut)
			logger.Infof("⏰ 轮询超时，铸造可能仍在进行 stream=%s attempts=%d", stream.ID, res.Attempts)
			return Outcome{
				Kind:     OutcomeTimedOut,
				StreamID: stream.ID,
				Message:  "Your moment is still being minted. Check back later.",
				Duration: duration,
			}
		}
	}

	out := Outcome{
		Kind:        OutcomeConfirmed,
		StreamID:    stream.ID,
		MintAddress: mintAddress,
		Message:     "Your moment is minted: " + mintAddress,
		Duration:    duration,
	}
	nft, err := o.backend.GetNFT(ctx, mintAddress)
	if err != nil {
		// 链上已确认，详情拿不到时只带 mint 地址
		logger.Errorf("获取 NFT 详情失败 mint=%s: %v", mintAddress, err)
		out.Result = &types.MintSuccess{MintAddress: mintAddress}
	} else {
		out.NFT = &nft
		result := nft.MintSuccess()
		out.Result = &result
	}

	o.setState(StateConfirmed)
	logger.Infof("✅ 铸造已确认 stream=%s mint=%s", stream.ID, mintAddress)
	return out
}

func (o *Orchestrator) fail(ctx context.Context, streamID string, duration time.Duration, err error) Outcome {
	o.setState(StateFailed)
	logx.WithContext(ctx).Errorf("❌ 流程失败 stream=%s: %v", streamID, err)
	return Outcome{
		Kind:     OutcomeFailed,
		StreamID: streamID,
		Message:  humanReason(err),
		Err:      err,
		Duration: duration,
	}
}

func humanReason(err error) string {
	var apiErr *gateway.APIError
	var transportErr *gateway.TransportError
	switch {
	case errors.Is(err, ErrMissingLocation):
		return "Location is not available yet. Enable location and try again."
	case errors.Is(err, ErrWalletNotConnected):
		return "Connect your wallet before recording."
	case errors.As(err, &apiErr):
		return "The server rejected the request: " + apiErr.Message
	case errors.As(err, &transportErr):
		return "Could not reach the server. Check your connection and try again."
	case errors.Is(err, ErrMissingStreamID):
		return "The server did not create a stream. Please try again."
	default:
		return "Minting failed: " + err.Error()
	}
}
