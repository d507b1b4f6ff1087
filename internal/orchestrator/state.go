package orchestrator

import (
	"errors"
	"time"

	"nowink/internal/types"
)

type State string

const (
	StateIdle             State = "idle"
	StateRecording        State = "recording"
	StateAwaitingLocation State = "awaiting_location"
	StateStreamStarted    State = "stream_started"
	StateUploading        State = "uploading"
	StateMinting          State = "minting"
	StateConfirmed        State = "confirmed"
	StateTimedOut         State = "timed_out"
	StateFailed           State = "failed"
)

// Terminal reports whether no further transition happens without a new recording.
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateTimedOut || s == StateFailed
}

var (
	ErrMissingLocation    = errors.New("no location fix captured at record start")
	ErrWalletNotConnected = errors.New("wallet not connected")
	ErrBusy               = errors.New("a capture is already in progress")
	ErrNotRecording       = errors.New("not recording")
	ErrMissingStreamID    = errors.New("backend returned a stream without an id")
)

// Location is a geographic fix.
type Location struct {
	Latitude  float64
	Longitude float64
}

type OutcomeKind string

const (
	OutcomeConfirmed OutcomeKind = "confirmed"
	OutcomeTimedOut  OutcomeKind = "timed_out"
	OutcomeFailed    OutcomeKind = "failed"
)

// Outcome is the single terminal result of a capture-to-mint run.
type Outcome struct {
	Kind     OutcomeKind
	StreamID string
	// Confirmed 时一定非空
	MintAddress string
	// getNFT 成功时填充
	NFT *types.NFT
	// Confirmed 时的铸造结果：mint 地址、update authority、creators、时间
	Result *types.MintSuccess
	// 面向用户的说明
	Message string
	// 内部诊断错误，仅 Failed 时非空
	Err      error
	Duration time.Duration
}

func (o Outcome) Confirmed() bool { return o.Kind == OutcomeConfirmed }
func (o Outcome) TimedOut() bool  { return o.Kind == OutcomeTimedOut }
func (o Outcome) Failed() bool    { return o.Kind == OutcomeFailed }
