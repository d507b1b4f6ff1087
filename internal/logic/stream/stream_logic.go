package stream

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"nowink/internal/errorx"
	"nowink/internal/model"
	"nowink/internal/svc"
	"nowink/internal/types"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"
)

const liveStreamsLimit = 50

type StreamLogic struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logx.Logger
	now func() time.Time
}

func NewStreamLogic(ctx context.Context, svcCtx *svc.ServiceContext) *StreamLogic {
	return &StreamLogic{
		ctx:    ctx,
		svcCtx: svcCtx,
		Logger: logx.WithContext(ctx),
		now:    time.Now,
	}
}

// StartStream 创建一个新的录制会话，每次录制都会生成新的 id
func (l *StreamLogic) StartStream(req *types.StartStreamReq, wallet string) (*types.Stream, error) {
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		return nil, errorx.BadRequest("latitude/longitude out of range")
	}

	now := l.now()
	title := req.Title
	if title == "" {
		title = "Moment at " + now.Format("15:04")
	}

	s := &model.Streams{
		Id:            uuid.NewString(),
		CreatorWallet: wallet,
		Title:         title,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		IsPublic:      req.IsPublic,
		IsLive:        true,
		StartedAt:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := l.svcCtx.StreamsDao.Insert(l.ctx, s); err != nil {
		l.Errorf("创建 stream 失败: %v", err)
		return nil, errors.New("failed to start stream")
	}

	l.Infof("stream 已创建: id=%s creator=%s (%.6f, %.6f)", s.Id, wallet, s.Latitude, s.Longitude)
	resp := toStreamDTO(s)
	return &resp, nil
}

// EndStream 结束直播，只有创建者可以操作
func (l *StreamLogic) EndStream(id, wallet string) (*types.Stream, error) {
	s, err := l.findOwned(id, wallet)
	if err != nil {
		return nil, err
	}

	if s.IsLive {
		l.end(s)
		if err := l.svcCtx.StreamsDao.Update(l.ctx, s); err != nil {
			l.Errorf("结束 stream 失败: %v", err)
			return nil, errors.New("failed to end stream")
		}
	}

	resp := toStreamDTO(s)
	return &resp, nil
}

func (l *StreamLogic) GetStream(id string) (*types.Stream, error) {
	s, err := l.svcCtx.StreamsDao.FindOne(l.ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, errorx.NotFound("stream not found")
		}
		return nil, err
	}
	resp := toStreamDTO(s)
	return &resp, nil
}

func (l *StreamLogic) ListLive() (*types.ListStreamsResp, error) {
	streams, err := l.svcCtx.StreamsDao.FindLive(l.ctx, liveStreamsLimit)
	if err != nil {
		return nil, err
	}
	resp := &types.ListStreamsResp{Streams: make([]types.Stream, 0, len(streams))}
	for _, s := range streams {
		resp.Streams = append(resp.Streams, toStreamDTO(s))
	}
	resp.Total = len(resp.Streams)
	return resp, nil
}

func (l *StreamLogic) findOwned(id, wallet string) (*model.Streams, error) {
	s, err := l.svcCtx.StreamsDao.FindOne(l.ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, errorx.NotFound("stream not found")
		}
		return nil, err
	}
	if s.CreatorWallet != wallet {
		return nil, errorx.Forbidden("not authorized to modify this stream")
	}
	return s, nil
}

func (l *StreamLogic) end(s *model.Streams) {
	now := l.now()
	s.IsLive = false
	s.EndedAt = sql.NullTime{Time: now, Valid: true}
	s.DurationSeconds = int(now.Sub(s.StartedAt).Seconds())
	s.UpdatedAt = now
}

func toStreamDTO(s *model.Streams) types.Stream {
	out := types.Stream{
		ID:              s.Id,
		CreatorWallet:   s.CreatorWallet,
		Title:           s.Title,
		Latitude:        s.Latitude,
		Longitude:       s.Longitude,
		IsPublic:        s.IsPublic,
		IsLive:          s.IsLive,
		StartedAt:       s.StartedAt,
		DurationSeconds: s.DurationSeconds,
		ViewerCount:     s.ViewerCount,
		MintAddress:     s.MintAddress.String,
		MetadataURI:     s.MetadataUri.String,
		VideoURI:        s.VideoUri.String,
		MintStatus:      s.MintStatus,
		MintError:       s.MintError.String,
	}
	if s.EndedAt.Valid {
		t := s.EndedAt.Time
		out.EndedAt = &t
	}
	return out
}
