package executor

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretspb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	soltypes "github.com/blocto/solana-go-sdk/types"
	"github.com/zeromicro/go-zero/core/logx"
)

var (
	ErrWalletFileMissing   = errors.New("platform wallet file not found")
	ErrMalformedCredential = errors.New("malformed platform credential")
)

// KeySource resolves the platform signing identity.
type KeySource interface {
	Load(ctx context.Context) (soltypes.Account, error)
}

// FileKeySource reads a solana-keygen keypair file.
type FileKeySource struct {
	Path string
}

func (s FileKeySource) Load(ctx context.Context) (soltypes.Account, error) {
	if strings.TrimSpace(s.Path) == "" {
		return soltypes.Account{}, fmt.Errorf("%w: no path configured", ErrWalletFileMissing)
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return soltypes.Account{}, fmt.Errorf("%w: %s", ErrWalletFileMissing, s.Path)
		}
		return soltypes.Account{}, fmt.Errorf("read keypair file %s: %w", s.Path, err)
	}

	acc, err := DecodeKeypair(data)
	if err != nil {
		return soltypes.Account{}, err
	}
	logx.WithContext(ctx).Infof("已加载平台钱包: path=%s pubkey=%s", s.Path, acc.PublicKey.ToBase58())
	return acc, nil
}

// SecretKeySource reads the keypair JSON from a Secret Manager secret version,
// e.g. projects/<project>/secrets/<secret>/versions/latest.
type SecretKeySource struct {
	Name string
}

func (s SecretKeySource) Load(ctx context.Context) (soltypes.Account, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return soltypes.Account{}, fmt.Errorf("secretmanager.NewClient: %w", err)
	}
	defer client.Close()

	resp, err := client.AccessSecretVersion(ctx, &secretspb.AccessSecretVersionRequest{
		Name: s.Name,
	})
	if err != nil {
		return soltypes.Account{}, fmt.Errorf("%w: access secret %s: %v", ErrWalletFileMissing, s.Name, err)
	}

	acc, err := DecodeKeypair(resp.Payload.Data)
	if err != nil {
		return soltypes.Account{}, err
	}
	logx.WithContext(ctx).Infof("已从 Secret Manager 加载平台钱包: secret=%s pubkey=%s", s.Name, acc.PublicKey.ToBase58())
	return acc, nil
}

// DecodeKeypair restores an account from keypair JSON. Both a base64 byte
// array and the solana-keygen integer array form are accepted.
func DecodeKeypair(data []byte) (soltypes.Account, error) {
	var keyBytes []byte
	if err := json.Unmarshal(data, &keyBytes); err != nil || len(keyBytes) != ed25519.PrivateKeySize {
		var ints []int
		if err := json.Unmarshal(data, &ints); err != nil {
			return soltypes.Account{}, fmt.Errorf("%w: %v", ErrMalformedCredential, err)
		}
		if len(ints) != ed25519.PrivateKeySize {
			return soltypes.Account{}, fmt.Errorf("%w: key length %d, want %d", ErrMalformedCredential, len(ints), ed25519.PrivateKeySize)
		}
		keyBytes = make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return soltypes.Account{}, fmt.Errorf("%w: byte %d out of range", ErrMalformedCredential, i)
			}
			keyBytes[i] = byte(v)
		}
	}

	acc, err := soltypes.AccountFromBytes(keyBytes)
	if err != nil {
		return soltypes.Account{}, fmt.Errorf("%w: %v", ErrMalformedCredential, err)
	}
	return acc, nil
}
