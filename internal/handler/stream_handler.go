package handler

import (
	"net/http"

	"nowink/internal/errorx"
	"nowink/internal/logic/stream"
	"nowink/internal/svc"
	"nowink/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest/httpx"
)

// multipart 解析时保留在内存中的上限，超出部分写临时文件
const multipartMemory = 32 << 20

// StartStreamHandler 开始一次录制
func StartStreamHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wallet, err := walletFromContext(r)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		var req types.StartStreamReq
		if err := httpx.Parse(r, &req); err != nil {
			logx.WithContext(r.Context()).Errorf("failed to parse request body: %v", err)
			httpx.ErrorCtx(r.Context(), w, errorx.BadRequest(err.Error()))
			return
		}

		l := stream.NewStreamLogic(r.Context(), svcCtx)
		resp, err := l.StartStream(&req, wallet)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}

func EndStreamHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wallet, err := walletFromContext(r)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		var req types.StreamPathReq
		if err := httpx.ParsePath(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, errorx.BadRequest(err.Error()))
			return
		}

		l := stream.NewStreamLogic(r.Context(), svcCtx)
		resp, err := l.EndStream(req.ID, wallet)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}

func GetStreamHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.StreamPathReq
		if err := httpx.ParsePath(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, errorx.BadRequest(err.Error()))
			return
		}

		l := stream.NewStreamLogic(r.Context(), svcCtx)
		resp, err := l.GetStream(req.ID)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}

func ListLiveStreamsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := stream.NewStreamLogic(r.Context(), svcCtx)
		resp, err := l.ListLive()
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}

// SaveStreamHandler 接收 multipart 字段 "video"，保存后异步铸造
func SaveStreamHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wallet, err := walletFromContext(r)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		var req types.StreamPathReq
		if err := httpx.ParsePath(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, errorx.BadRequest(err.Error()))
			return
		}

		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			httpx.ErrorCtx(r.Context(), w, errorx.BadRequest("failed to parse form"))
			return
		}
		file, header, err := r.FormFile("video")
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, errorx.BadRequest("video file required"))
			return
		}
		defer file.Close()

		l := stream.NewStreamLogic(r.Context(), svcCtx)
		resp, err := l.SaveStream(req.ID, wallet, stream.Video{
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		})
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
