package stream

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"nowink/internal/constant"
	"nowink/internal/errorx"
	"nowink/internal/model"
	"nowink/internal/types"
)

// Video is an uploaded recording.
type Video struct {
	ContentType string
	Size        int64
	Body        io.Reader
}

// SaveStream 保存视频、结束直播，并提交异步铸造任务
func (l *StreamLogic) SaveStream(id, wallet string, video Video) (*types.SaveStreamResp, error) {
	l.Infof("--- 开始处理保存请求, stream=%s ---", id)

	// 步骤 1: 校验视频
	maxBytes := l.svcCtx.Config.MaxVideoBytes
	if maxBytes <= 0 {
		maxBytes = constant.MaxVideoBytes
	}
	if video.Size > maxBytes {
		return nil, errorx.BadRequest(fmt.Sprintf("video file too large (max %dMB)", maxBytes/(1024*1024)))
	}
	if !constant.IsVideoTypeSupported(video.ContentType) {
		return nil, errorx.BadRequest("only mp4 and mov videos supported")
	}

	// 步骤 2: 校验 stream 归属与铸造状态
	s, err := l.findOwned(id, wallet)
	if err != nil {
		return nil, err
	}
	switch constant.MintStatus(s.MintStatus) {
	case constant.MintStatusPending, constant.MintStatusMinted:
		return nil, errorx.Conflict("stream already saved")
	}

	// 并发保存只有一个能抢到 pending
	claimed, err := l.svcCtx.StreamsDao.MarkPending(l.ctx, s.Id, wallet, l.now())
	if err != nil {
		l.Errorf("标记铸造中失败: %v", err)
		return nil, errors.New("failed to save stream")
	}
	if !claimed {
		return nil, errorx.Conflict("stream already saved")
	}
	s.MintStatus = string(constant.MintStatusPending)
	s.MintError = sql.NullString{}

	// 步骤 3: 写入本地文件
	path, err := l.writeVideo(s.Id, video)
	if err != nil {
		l.Errorf("保存视频失败: %v", err)
		l.release(s, "failed to save video")
		return nil, errors.New("failed to save video")
	}
	l.Infof("步骤 3: 视频已保存 path=%s", path)

	// 步骤 4: 结束直播并记录视频路径
	if s.IsLive {
		l.end(s)
	}
	s.VideoPath = sql.NullString{String: path, Valid: true}
	s.UpdatedAt = l.now()
	if err := l.svcCtx.StreamsDao.Update(l.ctx, s); err != nil {
		l.Errorf("更新 stream 失败: %v", err)
		l.release(s, "failed to end stream")
		return nil, errors.New("failed to end stream")
	}

	// 步骤 5: 提交铸造任务，不阻塞请求
	job := NewMintJob(l.svcCtx, s.Id, video.ContentType)
	if err := l.svcCtx.MintPool.Submit(job.Run); err != nil {
		l.Errorf("提交铸造任务失败: %v", err)
		l.release(s, "mint queue unavailable")
		return nil, errorx.ServiceUnavailable("minting is busy, try again")
	}

	l.Infof("--- 保存完成, 铸造任务已提交 stream=%s ---", s.Id)
	return &types.SaveStreamResp{
		StreamID: s.Id,
		Mint:     types.MintInfo{Status: string(constant.MintStatusPending)},
		Message:  "Video saved. Minting is in progress.",
	}, nil
}

// release 放弃 pending，记为 failed 以便重新保存
func (l *StreamLogic) release(s *model.Streams, reason string) {
	s.MintStatus = string(constant.MintStatusFailed)
	s.MintError = sql.NullString{String: reason, Valid: true}
	s.UpdatedAt = l.now()
	if err := l.svcCtx.StreamsDao.Update(l.ctx, s); err != nil {
		l.Errorf("回退 stream 铸造状态失败: %v", err)
	}
}

func (l *StreamLogic) writeVideo(id string, video Video) (string, error) {
	dir := l.svcCtx.Config.VideoDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	ext := ".mp4"
	if video.ContentType == "video/quicktime" {
		ext = ".mov"
	}
	path := filepath.Join(dir, id+ext)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create video file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, video.Body); err != nil {
		return "", fmt.Errorf("failed to write video file: %w", err)
	}
	return path, nil
}
