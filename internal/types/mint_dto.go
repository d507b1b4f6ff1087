package types

import (
	"encoding/json"
	"errors"
	"time"
)

// MintRequest is the input to a single mint execution.
type MintRequest struct {
	// Metadata document URI. Empty in bootstrap mode, where Metadata is uploaded first.
	MetadataURI string
	VideoURI    string
	Name        string
	// Base58 address of the moment's creator; receives the token.
	CreatorWallet string
	Network       string
	// 必须显式指定，nil 表示调用方遗漏
	SellerFeeBasisPoints *uint16
	// 仅 bootstrap 模式使用
	Metadata *MetadataDocument
}

// Creator is one royalty recipient recorded on chain.
type Creator struct {
	Address  string `json:"address"`
	Share    uint8  `json:"share"`
	Verified bool   `json:"verified"`
}

// MintSuccess is the payload of a successful mint.
type MintSuccess struct {
	MintAddress     string    `json:"mint_address"`
	MetadataURI     string    `json:"metadata_uri"`
	Name            string    `json:"name"`
	Symbol          string    `json:"symbol"`
	UpdateAuthority string    `json:"update_authority"`
	Creators        []Creator `json:"creators"`
	Network         string    `json:"network"`
	Signature       string    `json:"signature,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
	ExplorerURL     string    `json:"explorer_url"`
}

// MintFailure is the payload of a failed mint.
type MintFailure struct {
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// MintResult holds exactly one of a success or a failure.
// On the wire the two shapes are told apart by the "success" field.
type MintResult struct {
	success *MintSuccess
	failure *MintFailure
}

var ErrEmptyMintResult = errors.New("mint result holds neither success nor failure")

// Minted wraps a successful mint.
func Minted(s MintSuccess) MintResult {
	return MintResult{success: &s}
}

// MintFailed wraps a failed mint.
func MintFailed(reason string, at time.Time) MintResult {
	return MintResult{failure: &MintFailure{Error: reason, Timestamp: at}}
}

func (r MintResult) OK() bool {
	return r.success != nil
}

// Success returns the success payload, if any.
func (r MintResult) Success() (MintSuccess, bool) {
	if r.success == nil {
		return MintSuccess{}, false
	}
	return *r.success, true
}

// Failure returns the failure payload, if any.
func (r MintResult) Failure() (MintFailure, bool) {
	if r.failure == nil {
		return MintFailure{}, false
	}
	return *r.failure, true
}

type mintSuccessWire struct {
	Success bool `json:"success"`
	MintSuccess
}

type mintFailureWire struct {
	Success bool `json:"success"`
	MintFailure
}

func (r MintResult) MarshalJSON() ([]byte, error) {
	switch {
	case r.success != nil:
		return json.Marshal(mintSuccessWire{Success: true, MintSuccess: *r.success})
	case r.failure != nil:
		return json.Marshal(mintFailureWire{Success: false, MintFailure: *r.failure})
	default:
		return nil, ErrEmptyMintResult
	}
}

func (r *MintResult) UnmarshalJSON(data []byte) error {
	var probe struct {
		Success *bool `json:"success"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Success == nil {
		return errors.New("mint result is missing the success field")
	}

	if *probe.Success {
		var w mintSuccessWire
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		*r = Minted(w.MintSuccess)
		return nil
	}

	var w mintFailureWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.success = nil
	r.failure = &w.MintFailure
	return nil
}
