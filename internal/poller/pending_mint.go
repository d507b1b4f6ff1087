package poller

import (
	"time"

	"nowink/internal/constant"
	"nowink/internal/types"
)

// PendingMint is the correlation state held while waiting on a stream's mint.
type PendingMint struct {
	StreamID    string
	Attempts    int
	MaxAttempts int
	Deadline    time.Time

	lastErr error
}

func NewPendingMint(streamID string, maxAttempts int, deadline time.Time) *PendingMint {
	return &PendingMint{StreamID: streamID, MaxAttempts: maxAttempts, Deadline: deadline}
}

// Observe records one check. It returns the terminal result and true once
// the mint is confirmed, reported failed, or the budget is spent.
func (pm *PendingMint) Observe(stream types.Stream, err error, now time.Time) (Result, bool) {
	pm.Attempts++

	if err != nil {
		pm.lastErr = err
	} else {
		pm.lastErr = nil
		if stream.MintAddress != "" {
			return Result{
				Outcome:     OutcomeConfirmed,
				MintAddress: stream.MintAddress,
				Stream:      stream,
				Attempts:    pm.Attempts,
			}, true
		}
		if stream.MintStatus == string(constant.MintStatusFailed) {
			reason := stream.MintError
			if reason == "" {
				reason = "mint failed on the server"
			}
			return Result{Outcome: OutcomeFailed, Stream: stream, Attempts: pm.Attempts, Reason: reason}, true
		}
	}

	if pm.Attempts >= pm.MaxAttempts || !now.Before(pm.Deadline) {
		return pm.pending(), true
	}
	return Result{}, false
}

// Abandon ends the watch early without a verdict.
func (pm *PendingMint) Abandon(err error) Result {
	if pm.lastErr == nil {
		pm.lastErr = err
	}
	return pm.pending()
}

func (pm *PendingMint) pending() Result {
	res := Result{Outcome: OutcomePending, Attempts: pm.Attempts}
	if pm.lastErr != nil {
		res.Reason = pm.lastErr.Error()
	}
	return res
}
