package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nowink/internal/constant"
	"nowink/internal/types"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/rpc"
	soltypes "github.com/blocto/solana-go-sdk/types"
)

// MintSpec describes the token to create.
type MintSpec struct {
	// 接收 NFT 的钱包（创作者）
	Owner                string
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	Creators             []types.Creator
}

// MintReceipt is what the ledger reports once a mint is confirmed.
type MintReceipt struct {
	MintAddress string
	Signature   string
}

// Ledger is the chain the executor submits to.
type Ledger interface {
	Balance(ctx context.Context, address string) (uint64, error)
	Mint(ctx context.Context, authority soltypes.Account, spec MintSpec) (MintReceipt, error)
}

// RPCEndpoint returns the RPC URL for a network unless an override is given.
func RPCEndpoint(network, override string) string {
	if override != "" {
		return override
	}
	if network == string(constant.NetworkMainnet) {
		return rpc.MainnetRPCEndpoint
	}
	return rpc.DevnetRPCEndpoint
}

var (
	ErrTransactionFailed  = errors.New("transaction failed on chain")
	ErrTransactionExpired = errors.New("transaction expired before confirmation")
)

// SolanaLedger mints Metaplex master editions through a Solana RPC node.
type SolanaLedger struct {
	client          *client.Client
	confirmInterval time.Duration
}

func NewSolanaLedger(rpcURL string) *SolanaLedger {
	return &SolanaLedger{client: client.NewClient(rpcURL), confirmInterval: constant.ConfirmPollInterval}
}

// signatureTracker reports a submitted transaction's status and the chain height.
type signatureTracker interface {
	SignatureStatus(ctx context.Context, signature string) (*rpc.SignatureStatus, error)
	BlockHeight(ctx context.Context) (uint64, error)
}

type rpcTracker struct {
	client *client.Client
}

func (t rpcTracker) SignatureStatus(ctx context.Context, signature string) (*rpc.SignatureStatus, error) {
	return t.client.GetSignatureStatus(ctx, signature)
}

func (t rpcTracker) BlockHeight(ctx context.Context) (uint64, error) {
	res, err := t.client.RpcClient.GetBlockHeight(ctx)
	if err != nil {
		return 0, err
	}
	if res.Error != nil {
		return 0, res.Error
	}
	return res.Result, nil
}

// waitConfirmed polls until the signature reaches confirmed commitment.
// Once the chain passes lastValidHeight the blockhash can no longer land,
// so the transaction is reported expired. RPC errors while polling are retried.
func waitConfirmed(ctx context.Context, tracker signatureTracker, signature string, lastValidHeight uint64, interval time.Duration) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for confirmation of %s: %w", signature, ctx.Err())
		case <-timer.C:
		}

		if done, err := checkSignature(ctx, tracker, signature); done {
			return err
		}
		if height, err := tracker.BlockHeight(ctx); err == nil && height > lastValidHeight {
			// 过期前最后确认一次，避免漏掉刚落地的交易
			if done, err := checkSignature(ctx, tracker, signature); done {
				return err
			}
			return fmt.Errorf("%w: %s", ErrTransactionExpired, signature)
		}
		timer.Reset(interval)
	}
}

func checkSignature(ctx context.Context, tracker signatureTracker, signature string) (bool, error) {
	status, err := tracker.SignatureStatus(ctx, signature)
	if err != nil || status == nil {
		return false, nil
	}
	if status.Err != nil {
		return true, fmt.Errorf("%w: %s: %v", ErrTransactionFailed, signature, status.Err)
	}
	if status.ConfirmationStatus == nil {
		return false, nil
	}
	switch *status.ConfirmationStatus {
	case rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
		return true, nil
	}
	return false, nil
}

func (l *SolanaLedger) Balance(ctx context.Context, address string) (uint64, error) {
	balance, err := l.client.GetBalance(ctx, address)
	if err != nil {
		return 0, fmt.Errorf("GetBalance: %w", err)
	}
	return balance, nil
}

// Mint creates a new mint account, its metadata and master edition, and
// mints one token into the owner's associated token account. The authority
// pays fees, signs, and is the update authority.
func (l *SolanaLedger) Mint(ctx context.Context, authority soltypes.Account, spec MintSpec) (MintReceipt, error) {
	owner := common.PublicKeyFromString(spec.Owner)
	mint := soltypes.NewAccount()

	ata, _, err := common.FindAssociatedTokenAddress(owner, mint.PublicKey)
	if err != nil {
		return MintReceipt{}, fmt.Errorf("FindAssociatedTokenAddress: %w", err)
	}
	metadataPubkey, err := token_metadata.GetTokenMetaPubkey(mint.PublicKey)
	if err != nil {
		return MintReceipt{}, fmt.Errorf("GetTokenMetaPubkey: %w", err)
	}
	masterEditionPubkey, err := token_metadata.GetMasterEdition(mint.PublicKey)
	if err != nil {
		return MintReceipt{}, fmt.Errorf("GetMasterEdition: %w", err)
	}

	mintRent, err := l.client.GetMinimumBalanceForRentExemption(ctx, token.MintAccountSize)
	if err != nil {
		return MintReceipt{}, fmt.Errorf("GetMinimumBalanceForRentExemption: %w", err)
	}
	recent, err := l.client.GetLatestBlockhash(ctx)
	if err != nil {
		return MintReceipt{}, fmt.Errorf("GetLatestBlockhash: %w", err)
	}

	creators := make([]token_metadata.Creator, 0, len(spec.Creators))
	for _, c := range spec.Creators {
		creators = append(creators, token_metadata.Creator{
			Address:  common.PublicKeyFromString(c.Address),
			Verified: c.Verified,
			Share:    c.Share,
		})
	}

	// 每个时刻只铸造一枚
	maxSupply := uint64(1)

	tx, err := soltypes.NewTransaction(soltypes.NewTransactionParam{
		Signers: []soltypes.Account{mint, authority},
		Message: soltypes.NewMessage(soltypes.NewMessageParam{
			FeePayer:        authority.PublicKey,
			RecentBlockhash: recent.Blockhash,
			Instructions: []soltypes.Instruction{
				system.CreateAccount(system.CreateAccountParam{
					From:     authority.PublicKey,
					New:      mint.PublicKey,
					Owner:    common.TokenProgramID,
					Lamports: mintRent,
					Space:    token.MintAccountSize,
				}),
				token.InitializeMint(token.InitializeMintParam{
					Decimals:   0,
					Mint:       mint.PublicKey,
					MintAuth:   authority.PublicKey,
					FreezeAuth: &authority.PublicKey,
				}),
				token_metadata.CreateMetadataAccountV3(token_metadata.CreateMetadataAccountV3Param{
					Metadata:                metadataPubkey,
					Mint:                    mint.PublicKey,
					MintAuthority:           authority.PublicKey,
					UpdateAuthority:         authority.PublicKey,
					Payer:                   authority.PublicKey,
					UpdateAuthorityIsSigner: true,
					IsMutable:               true,
					Data: token_metadata.DataV2{
						Name:                 spec.Name,
						Symbol:               spec.Symbol,
						Uri:                  spec.URI,
						SellerFeeBasisPoints: spec.SellerFeeBasisPoints,
						Creators:             &creators,
					},
				}),
				associated_token_account.CreateAssociatedTokenAccount(associated_token_account.CreateAssociatedTokenAccountParam{
					Funder:                 authority.PublicKey,
					Owner:                  owner,
					Mint:                   mint.PublicKey,
					AssociatedTokenAccount: ata,
				}),
				token.MintTo(token.MintToParam{
					Mint:   mint.PublicKey,
					To:     ata,
					Auth:   authority.PublicKey,
					Amount: 1,
				}),
				token_metadata.CreateMasterEditionV3(token_metadata.CreateMasterEditionParam{
					Edition:         masterEditionPubkey,
					Mint:            mint.PublicKey,
					UpdateAuthority: authority.PublicKey,
					MintAuthority:   authority.PublicKey,
					Metadata:        metadataPubkey,
					Payer:           authority.PublicKey,
					MaxSupply:       &maxSupply,
				}),
			},
		}),
	})
	if err != nil {
		return MintReceipt{}, fmt.Errorf("NewTransaction: %w", err)
	}

	sig, err := l.client.SendTransaction(ctx, tx)
	if err != nil {
		return MintReceipt{}, fmt.Errorf("SendTransaction: %w", err)
	}
	if err := waitConfirmed(ctx, rpcTracker{client: l.client}, sig, recent.LatestValidBlockHeight, l.confirmInterval); err != nil {
		return MintReceipt{}, err
	}

	return MintReceipt{MintAddress: mint.PublicKey.ToBase58(), Signature: sig}, nil
}
