package handler

import (
	"net/http"

	"nowink/internal/errorx"
	"nowink/internal/logic/nft"
	"nowink/internal/svc"
	"nowink/internal/types"

	"github.com/zeromicro/go-zero/rest/httpx"
)

// ListNFTsHandler 地图页查询，支持 latitude/longitude/radius_km 与 creator 过滤
func ListNFTsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ListNFTsReq
		if err := httpx.ParseForm(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, errorx.BadRequest(err.Error()))
			return
		}

		l := nft.NewNftLogic(r.Context(), svcCtx)
		resp, err := l.ListNFTs(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}

func GetNFTHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.NFTPathReq
		if err := httpx.ParsePath(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, errorx.BadRequest(err.Error()))
			return
		}

		l := nft.NewNftLogic(r.Context(), svcCtx)
		resp, err := l.GetNFT(req.MintAddress)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
