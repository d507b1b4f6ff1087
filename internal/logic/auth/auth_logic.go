package auth

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"nowink/internal/constant"
	"nowink/internal/errorx"
	"nowink/internal/model"
	"nowink/internal/svc"
	"nowink/internal/types"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/zeromicro/go-zero/core/logx"
)

// ClaimWalletAddress is the JWT claim holding the signed-in wallet.
const ClaimWalletAddress = "wallet_address"

type AuthLogic struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logx.Logger
	now func() time.Time
}

func NewAuthLogic(ctx context.Context, svcCtx *svc.ServiceContext) *AuthLogic {
	return &AuthLogic{
		ctx:    ctx,
		svcCtx: svcCtx,
		Logger: logx.WithContext(ctx),
		now:    time.Now,
	}
}

// SignInMessage is the exact text a wallet signs to prove ownership.
func SignInMessage(nonce string) string {
	return constant.SignInMessagePrefix + nonce
}

// Nonce 为钱包签发一次性登录 nonce
func (l *AuthLogic) Nonce(req *types.NonceReq) (*types.NonceResp, error) {
	if _, err := decodePublicKey(req.WalletAddress); err != nil {
		return nil, errorx.BadRequest("wallet_address must be a base58 public key")
	}

	nonce := uuid.NewString()
	now := l.now()
	if err := l.svcCtx.AuthNoncesDao.Insert(l.ctx, &model.AuthNonces{
		Nonce:         nonce,
		WalletAddress: req.WalletAddress,
		ExpiresAt:     now.Add(constant.NonceTTL),
		CreatedAt:     now,
	}); err != nil {
		l.Errorf("保存 nonce 失败: %v", err)
		return nil, errors.New("failed to generate nonce")
	}

	l.Infof("已签发 nonce: wallet=%s", req.WalletAddress)
	return &types.NonceResp{Nonce: nonce, Message: SignInMessage(nonce)}, nil
}

// Verify 校验签名并签发 JWT，nonce 只能使用一次
func (l *AuthLogic) Verify(req *types.VerifyReq) (*types.VerifyResp, error) {
	if req.WalletAddress == "" || req.Signature == "" || req.Nonce == "" {
		return nil, errorx.BadRequest("wallet_address, signature, and nonce required")
	}
	pub, err := decodePublicKey(req.WalletAddress)
	if err != nil {
		return nil, errorx.BadRequest("wallet_address must be a base58 public key")
	}

	// 步骤 1: 消费 nonce
	issued, err := l.svcCtx.AuthNoncesDao.Consume(l.ctx, req.Nonce, req.WalletAddress)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, errorx.Unauthorized("invalid or expired nonce")
		}
		l.Errorf("消费 nonce 失败: %v", err)
		return nil, errors.New("failed to validate nonce")
	}
	if !l.now().Before(issued.ExpiresAt) {
		return nil, errorx.Unauthorized("invalid or expired nonce")
	}

	// 步骤 2: 校验 ed25519 签名
	sig, err := decodeSignature(req.Signature)
	if err != nil || !ed25519.Verify(pub, []byte(SignInMessage(req.Nonce)), sig) {
		l.Infof("签名校验失败: wallet=%s", req.WalletAddress)
		return nil, errorx.Unauthorized("invalid signature")
	}

	// 步骤 3: 签发 token
	now := l.now()
	expiresAt := now.Add(time.Duration(l.svcCtx.Config.Auth.AccessExpire) * time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		ClaimWalletAddress: req.WalletAddress,
		"iat":              now.Unix(),
		"exp":              expiresAt.Unix(),
		"iss":              constant.AppName,
	}).SignedString([]byte(l.svcCtx.Config.Auth.AccessSecret))
	if err != nil {
		l.Errorf("签发 token 失败: %v", err)
		return nil, errors.New("failed to generate token")
	}

	l.Infof("✅ 登录成功: wallet=%s", req.WalletAddress)
	return &types.VerifyResp{Token: token, ExpiresAt: expiresAt.Unix(), WalletAddress: req.WalletAddress}, nil
}

func decodePublicKey(address string) (ed25519.PublicKey, error) {
	raw, err := base58.Decode(strings.TrimSpace(address))
	if err != nil {
		return nil, err
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, errors.New("wrong public key length")
	}
	return ed25519.PublicKey(raw), nil
}

// decodeSignature accepts base64 (what the client sends) or base58.
func decodeSignature(s string) ([]byte, error) {
	if sig, err := base64.StdEncoding.DecodeString(s); err == nil && len(sig) == ed25519.SignatureSize {
		return sig, nil
	}
	sig, err := base58.Decode(s)
	if err != nil {
		return nil, err
	}
	if len(sig) != ed25519.SignatureSize {
		return nil, errors.New("wrong signature length")
	}
	return sig, nil
}
