package handler

import (
	"net/http"
	"time"

	"nowink/internal/constant"
	"nowink/internal/svc"

	"github.com/zeromicro/go-zero/rest"
)

func RegisterHandlers(server *rest.Server, serverCtx *svc.ServiceContext) {
	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodGet,
				Path:    "/health",
				Handler: HealthHandler(serverCtx),
			},
			// --- Auth Routes ---
			{
				Method:  http.MethodPost,
				Path:    "/auth/nonce",
				Handler: NonceHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/auth/verify",
				Handler: VerifyHandler(serverCtx),
			},
			// --- Public Stream / NFT Routes ---
			{
				Method:  http.MethodGet,
				Path:    "/streams/live",
				Handler: ListLiveStreamsHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/streams/:id",
				Handler: GetStreamHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/nfts",
				Handler: ListNFTsHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/nfts/:mint_address",
				Handler: GetNFTHandler(serverCtx),
			},
		},
		rest.WithTimeout(constant.RequestTimeout),
	)

	// 需要登录的路由
	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodPost,
				Path:    "/streams/start",
				Handler: StartStreamHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/streams/:id/end",
				Handler: EndStreamHandler(serverCtx),
			},
		},
		rest.WithJwt(serverCtx.Config.Auth.AccessSecret),
		rest.WithTimeout(constant.RequestTimeout),
	)

	// 视频上传需要更大的 body 和更长的超时
	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodPost,
				Path:    "/streams/:id/save",
				Handler: SaveStreamHandler(serverCtx),
			},
		},
		rest.WithJwt(serverCtx.Config.Auth.AccessSecret),
		rest.WithMaxBytes(maxUploadBytes(serverCtx)),
		rest.WithTimeout(5*time.Minute),
	)
}

// multipart 包装会多出少量字节
func maxUploadBytes(svcCtx *svc.ServiceContext) int64 {
	limit := svcCtx.Config.MaxVideoBytes
	if limit <= 0 {
		limit = constant.MaxVideoBytes
	}
	return limit + 1<<20
}
