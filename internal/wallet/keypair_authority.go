package wallet

import (
	"context"
	"fmt"

	soltypes "github.com/blocto/solana-go-sdk/types"
)

// KeypairAuthority is a local wallet backed by a single keypair. It approves
// every authorization and only signs for its own address.
type KeypairAuthority struct {
	account soltypes.Account
}

func NewKeypairAuthority(account soltypes.Account) *KeypairAuthority {
	return &KeypairAuthority{account: account}
}

func (k *KeypairAuthority) Authorize(ctx context.Context, identity AppIdentity) (string, error) {
	return k.account.PublicKey.ToBase58(), nil
}

func (k *KeypairAuthority) SignMessages(ctx context.Context, addresses []string, payloads [][]byte) ([][]byte, error) {
	own := k.account.PublicKey.ToBase58()
	for _, addr := range addresses {
		if addr != own {
			return nil, fmt.Errorf("no key for address %s", addr)
		}
	}

	sigs := make([][]byte, 0, len(payloads))
	for _, p := range payloads {
		sigs = append(sigs, k.account.Sign(p))
	}
	return sigs, nil
}
