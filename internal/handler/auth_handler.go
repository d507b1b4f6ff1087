package handler

import (
	"net/http"

	"nowink/internal/constant"
	"nowink/internal/errorx"
	"nowink/internal/logic/auth"
	"nowink/internal/svc"
	"nowink/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest/httpx"
)

// NonceHandler 为钱包签发登录 nonce
func NonceHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.NonceReq
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, errorx.BadRequest(err.Error()))
			return
		}

		l := auth.NewAuthLogic(r.Context(), svcCtx)
		resp, err := l.Nonce(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}

// VerifyHandler 校验签名并返回 JWT
func VerifyHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.VerifyReq
		if err := httpx.Parse(r, &req); err != nil {
			logx.WithContext(r.Context()).Errorf("failed to parse request body: %v", err)
			httpx.ErrorCtx(r.Context(), w, errorx.BadRequest(err.Error()))
			return
		}

		l := auth.NewAuthLogic(r.Context(), svcCtx)
		resp, err := l.Verify(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}

func HealthHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		network := svcCtx.Config.Solana.Network
		if network == "" {
			network = string(constant.NetworkDevnet)
		}
		httpx.OkJsonCtx(r.Context(), w, types.HealthResp{Status: "ok", Network: network})
	}
}

// walletFromContext 读取 JWT 中间件写入的钱包地址
func walletFromContext(r *http.Request) (string, error) {
	wallet, ok := r.Context().Value(auth.ClaimWalletAddress).(string)
	if !ok || wallet == "" {
		return "", errorx.Unauthorized("unauthorized")
	}
	return wallet, nil
}
