package wallet

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"nowink/internal/constant"

	"github.com/zeromicro/go-zero/core/logx"
)

var (
	ErrAuthorizationDenied = errors.New("wallet authorization denied")
	ErrNotConnected        = errors.New("wallet not connected")
	ErrSigningRejected     = errors.New("wallet rejected signing request")
)

// AppIdentity is what the wallet shows the user when asked to authorize.
type AppIdentity struct {
	Name string
	URI  string
	Icon string
}

// DefaultIdentity 本应用在钱包中展示的身份
var DefaultIdentity = AppIdentity{
	Name: constant.AppName,
	URI:  constant.AppURI,
	Icon: constant.AppIcon,
}

// Authority is the external signing capability. Implementations own the keys.
type Authority interface {
	// Authorize asks the wallet to grant identity access and returns the authorized address.
	Authorize(ctx context.Context, identity AppIdentity) (string, error)
	// SignMessages signs each payload for the given addresses.
	SignMessages(ctx context.Context, addresses []string, payloads [][]byte) ([][]byte, error)
}

// Session tracks the connected wallet identity for one app run.
type Session struct {
	authority Authority
	identity  AppIdentity

	mu      sync.RWMutex
	address string
}

func NewSession(authority Authority, identity AppIdentity) *Session {
	return &Session{authority: authority, identity: identity}
}

// Connect authorizes against the wallet and stores the returned address.
// On failure the session is left as it was.
func (s *Session) Connect(ctx context.Context) (string, error) {
	address, err := s.authority.Authorize(ctx, s.identity)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthorizationDenied, err)
	}
	if address == "" {
		return "", fmt.Errorf("%w: wallet returned no address", ErrAuthorizationDenied)
	}

	s.mu.Lock()
	s.address = address
	s.mu.Unlock()

	logx.WithContext(ctx).Infof("✅ 钱包已连接: %s", address)
	return address, nil
}

// Disconnect forgets the identity locally. The wallet side is not told.
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.address = ""
	s.mu.Unlock()
}

// Address returns the connected address, if any.
func (s *Session) Address() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.address, s.address != ""
}

func (s *Session) Connected() bool {
	_, ok := s.Address()
	return ok
}

// SignMessage signs message with the connected identity and returns the
// signature as base64. The wallet is re-authorized before each signing request.
func (s *Session) SignMessage(ctx context.Context, message string) (string, error) {
	address, ok := s.Address()
	if !ok {
		return "", ErrNotConnected
	}

	if _, err := s.authority.Authorize(ctx, s.identity); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthorizationDenied, err)
	}

	sigs, err := s.authority.SignMessages(ctx, []string{address}, [][]byte{[]byte(message)})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigningRejected, err)
	}
	if len(sigs) == 0 || len(sigs[0]) == 0 {
		return "", fmt.Errorf("%w: empty signature", ErrSigningRejected)
	}

	return base64.StdEncoding.EncodeToString(sigs[0]), nil
}
