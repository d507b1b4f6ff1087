// Package svctest builds a ServiceContext backed by in-memory fakes.
package svctest

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"nowink/internal/config"
	"nowink/internal/executor"
	"nowink/internal/model"
	"nowink/internal/svc"
	"nowink/internal/types"
)

const PlatformWallet = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"

// Fakes exposes the collaborators behind a test ServiceContext.
type Fakes struct {
	Streams *Streams
	Nfts    *Nfts
	Nonces  *Nonces
	Storage *Storage
	Minter  *Minter
}

// New returns a ServiceContext whose mint jobs run inline on Submit.
func New(videoDir string) (*svc.ServiceContext, *Fakes) {
	f := &Fakes{
		Streams: &Streams{rows: map[string]model.Streams{}},
		Nfts:    &Nfts{rows: map[string]model.Nfts{}},
		Nonces:  &Nonces{rows: map[string]model.AuthNonces{}},
		Storage: &Storage{Documents: map[string][]byte{}},
		Minter:  &Minter{},
	}

	var c config.Config
	c.Auth.AccessSecret = "test-secret"
	c.Auth.AccessExpire = 3600
	c.Solana.Network = "devnet"
	c.VideoDir = videoDir
	c.MaxVideoBytes = 100 * 1024 * 1024

	return &svc.ServiceContext{
		Config:         c,
		StreamsDao:     f.Streams,
		NftsDao:        f.Nfts,
		AuthNoncesDao:  f.Nonces,
		Storage:        f.Storage,
		Minter:         f.Minter,
		PlatformWallet: PlatformWallet,
		MintPool:       InlineRunner{},
	}, f
}

// InlineRunner runs submitted tasks synchronously.
type InlineRunner struct{}

func (InlineRunner) Submit(task func()) error {
	task()
	return nil
}

type Streams struct {
	mu   sync.Mutex
	rows map[string]model.Streams
}

func (s *Streams) Insert(ctx context.Context, data *model.Streams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[data.Id]; ok {
		return fmt.Errorf("duplicate stream %s", data.Id)
	}
	s.rows[data.Id] = *data
	return nil
}

func (s *Streams) FindOne(ctx context.Context, id string) (*model.Streams, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &row, nil
}

func (s *Streams) Update(ctx context.Context, data *model.Streams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[data.Id] = *data
	return nil
}

func (s *Streams) MarkPending(ctx context.Context, id, wallet string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok || row.CreatorWallet != wallet {
		return false, nil
	}
	if row.MintStatus != "" && row.MintStatus != "failed" {
		return false, nil
	}
	row.MintStatus = "pending"
	row.MintError = sql.NullString{}
	row.UpdatedAt = now
	s.rows[id] = row
	return true, nil
}

func (s *Streams) FindLive(ctx context.Context, limit int) ([]*model.Streams, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Streams
	for _, row := range s.rows {
		if row.IsLive && row.IsPublic {
			r := row
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count returns the number of stored streams.
func (s *Streams) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

type Nfts struct {
	mu   sync.Mutex
	rows map[string]model.Nfts
}

func (n *Nfts) Insert(ctx context.Context, data *model.Nfts) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rows[data.MintAddress] = *data
	return nil
}

func (n *Nfts) FindOneByMintAddress(ctx context.Context, mintAddress string) (*model.Nfts, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	row, ok := n.rows[mintAddress]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &row, nil
}

func (n *Nfts) FindByFilter(ctx context.Context, filter model.NftFilter) ([]*model.Nfts, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []*model.Nfts
	for _, row := range n.rows {
		if filter.Creator != "" && row.CreatorWallet != filter.Creator {
			continue
		}
		if b := filter.Box; b != nil {
			if row.Latitude < b.MinLat || row.Latitude > b.MaxLat || row.Longitude < b.MinLon || row.Longitude > b.MaxLon {
				continue
			}
		}
		r := row
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

type Nonces struct {
	mu   sync.Mutex
	rows map[string]model.AuthNonces
}

func (n *Nonces) Insert(ctx context.Context, data *model.AuthNonces) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rows[data.Nonce] = *data
	return nil
}

func (n *Nonces) Consume(ctx context.Context, nonce, walletAddress string) (*model.AuthNonces, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	row, ok := n.rows[nonce]
	if !ok || row.WalletAddress != walletAddress {
		return nil, model.ErrNotFound
	}
	delete(n.rows, nonce)
	return &row, nil
}

// Expire moves a nonce's expiry into the past.
func (n *Nonces) Expire(nonce string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	row := n.rows[nonce]
	row.ExpiresAt = time.Now().Add(-time.Minute)
	n.rows[nonce] = row
}

// Storage keeps uploaded JSON documents keyed by the returned URI.
type Storage struct {
	mu        sync.Mutex
	Documents map[string][]byte
	Files     []string
	Err       error
}

func (s *Storage) UploadJSON(ctx context.Context, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	uri := fmt.Sprintf("ar://meta-%d", len(s.Documents)+1)
	s.Documents[uri] = append([]byte(nil), data...)
	return uri, nil
}

func (s *Storage) UploadFile(ctx context.Context, path, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	s.Files = append(s.Files, path)
	return fmt.Sprintf("ar://video-%d", len(s.Files)), nil
}

// Minter returns a success with a fixed mint address unless FailWith is set.
// With Block set it waits for ctx to end, like a hung RPC.
type Minter struct {
	mu       sync.Mutex
	Requests []types.MintRequest
	FailWith string
	Block    bool
}

const MintAddress = "7nYB3sQZ9kSxZ4nHzRk6PpZ4b1cPq2LwV8rXyJmNa1Qe"

func (m *Minter) Mint(ctx context.Context, req types.MintRequest) types.MintResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	if m.Block {
		m.mu.Unlock()
		<-ctx.Done()
		m.mu.Lock()
		return types.MintFailed(ctx.Err().Error(), time.Now())
	}
	if m.FailWith != "" {
		return types.MintFailed(m.FailWith, time.Now())
	}
	return types.Minted(types.MintSuccess{
		MintAddress:     MintAddress,
		MetadataURI:     req.MetadataURI,
		Name:            req.Name,
		Symbol:          "NOWINK",
		UpdateAuthority: PlatformWallet,
		Creators:        executor.CreatorShares(PlatformWallet, req.CreatorWallet),
		Network:         req.Network,
		Signature:       "sig-1",
		Timestamp:       time.Now(),
	})
}
