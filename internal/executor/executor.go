package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"nowink/internal/constant"
	"nowink/internal/types"

	"github.com/mr-tron/base58"
	"github.com/zeromicro/go-zero/core/logx"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient platform balance")
	ErrInvalidCreatorAddress = errors.New("invalid creator address")
	ErrSellerFeeUnset        = errors.New("seller fee basis points must be set explicitly")
	ErrMissingMetadata       = errors.New("metadata uri or metadata document is required")
	ErrMissingName           = errors.New("name is required")
	ErrNetworkMismatch       = errors.New("request network does not match executor network")
)

// Minter turns a MintRequest into exactly one MintResult.
type Minter interface {
	Mint(ctx context.Context, req types.MintRequest) types.MintResult
}

// Executor mints in-process against one network.
type Executor struct {
	keys    KeySource
	ledger  Ledger
	storage Storage
	network string
	now     func() time.Time
}

// NewExecutor builds an executor. storage may be nil when every request
// carries a metadata URI.
func NewExecutor(keys KeySource, ledger Ledger, storage Storage, network string) *Executor {
	return &Executor{
		keys:    keys,
		ledger:  ledger,
		storage: storage,
		network: network,
		now:     time.Now,
	}
}

// ValidateAddress reports whether addr is a base58 encoded 32-byte public key.
func ValidateAddress(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidCreatorAddress)
	}
	raw, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidCreatorAddress, addr)
	}
	if len(raw) != 32 {
		return fmt.Errorf("%w: %s decodes to %d bytes", ErrInvalidCreatorAddress, addr, len(raw))
	}
	return nil
}

// Mint runs one mint. It never panics past this call and always returns
// either a success or a failure result.
func (e *Executor) Mint(ctx context.Context, req types.MintRequest) (result types.MintResult) {
	logger := logx.WithContext(ctx)
	defer func() {
		if p := recover(); p != nil {
			logger.Errorf("铸造过程 panic: %v", p)
			result = types.MintFailed(fmt.Sprintf("mint aborted: %v", p), e.now())
		}
	}()

	success, err := e.mint(ctx, logger, req)
	if err != nil {
		logger.Errorf("❌ 铸造失败: %v", err)
		return types.MintFailed(err.Error(), e.now())
	}
	return types.Minted(success)
}

func (e *Executor) mint(ctx context.Context, logger logx.Logger, req types.MintRequest) (types.MintSuccess, error) {
	network := req.Network
	if network == "" {
		network = e.network
	}

	// 步骤 1: 前置校验，不触发任何网络或存储调用
	logger.Infof("步骤 1: 校验铸造请求 name=%s creator=%s network=%s", req.Name, req.CreatorWallet, network)
	if req.SellerFeeBasisPoints == nil {
		return types.MintSuccess{}, ErrSellerFeeUnset
	}
	if network != e.network {
		return types.MintSuccess{}, fmt.Errorf("%w: %s != %s", ErrNetworkMismatch, network, e.network)
	}
	if strings.TrimSpace(req.Name) == "" {
		return types.MintSuccess{}, ErrMissingName
	}
	if err := ValidateAddress(req.CreatorWallet); err != nil {
		return types.MintSuccess{}, err
	}
	if req.MetadataURI == "" && req.Metadata == nil {
		return types.MintSuccess{}, ErrMissingMetadata
	}
	fee := *req.SellerFeeBasisPoints

	// 步骤 2: 加载平台钱包
	logger.Infof("步骤 2: 加载平台签名钱包")
	authority, err := e.keys.Load(ctx)
	if err != nil {
		return types.MintSuccess{}, err
	}
	platform := authority.PublicKey.ToBase58()

	// 步骤 3: 余额检查，低于下限绝不提交交易
	balance, err := e.ledger.Balance(ctx, platform)
	if err != nil {
		return types.MintSuccess{}, fmt.Errorf("query platform balance: %w", err)
	}
	logger.Infof("步骤 3: 平台钱包余额 %d lamports (下限 %d)", balance, constant.MinPlatformBalance)
	if balance < constant.MinPlatformBalance {
		return types.MintSuccess{}, fmt.Errorf("%w: %.4f SOL, need at least %.2f SOL",
			ErrInsufficientBalance,
			float64(balance)/float64(constant.LamportsPerSOL),
			float64(constant.MinPlatformBalance)/float64(constant.LamportsPerSOL))
	}

	creators := CreatorShares(platform, req.CreatorWallet)

	// 步骤 4: bootstrap 流程需要先上传元数据
	metadataURI := req.MetadataURI
	if metadataURI == "" {
		if e.storage == nil {
			return types.MintSuccess{}, errors.New("storage is not configured for metadata upload")
		}
		doc := *req.Metadata
		doc.SellerFeeBasisPoints = fee
		doc.Properties.Creators = creators
		data, err := json.Marshal(doc)
		if err != nil {
			return types.MintSuccess{}, fmt.Errorf("marshal metadata: %w", err)
		}
		metadataURI, err = e.storage.UploadJSON(ctx, data)
		if err != nil {
			return types.MintSuccess{}, fmt.Errorf("upload metadata: %w", err)
		}
		logger.Infof("步骤 4: 元数据已上传 uri=%s", metadataURI)
	}

	// 步骤 5: 提交铸造交易，平台签名，创作者无需签名
	logger.Infof("步骤 5: 提交铸造交易 uri=%s seller_fee=%d", metadataURI, fee)
	receipt, err := e.ledger.Mint(ctx, authority, MintSpec{
		Owner:                req.CreatorWallet,
		Name:                 req.Name,
		Symbol:               constant.Symbol,
		URI:                  metadataURI,
		SellerFeeBasisPoints: fee,
		Creators:             creators,
	})
	if err != nil {
		return types.MintSuccess{}, fmt.Errorf("mint transaction: %w", err)
	}

	logger.Infof("✅ 铸造成功 mint=%s signature=%s", receipt.MintAddress, receipt.Signature)
	return types.MintSuccess{
		MintAddress:     receipt.MintAddress,
		MetadataURI:     metadataURI,
		Name:            req.Name,
		Symbol:          constant.Symbol,
		UpdateAuthority: platform,
		Creators:        creators,
		Network:         network,
		Signature:       receipt.Signature,
		Timestamp:       e.now(),
		ExplorerURL:     ExplorerURL(receipt.MintAddress, network),
	}, nil
}
