package stream

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nowink/internal/constant"
	"nowink/internal/executor"
	"nowink/internal/model"
	"nowink/internal/svc"
	"nowink/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

// MintJob uploads a saved stream's video and metadata and mints it.
// It runs detached from the request and records the outcome on the stream.
type MintJob struct {
	svcCtx    *svc.ServiceContext
	streamID  string
	videoType string
	now       func() time.Time
}

func NewMintJob(svcCtx *svc.ServiceContext, streamID, videoType string) *MintJob {
	return &MintJob{svcCtx: svcCtx, streamID: streamID, videoType: videoType, now: time.Now}
}

func (j *MintJob) Run() {
	base := logx.ContextWithFields(context.Background(), logx.Field("stream_id", j.streamID))
	logger := logx.WithContext(base)

	timeout := j.svcCtx.Config.Minter.Timeout
	if timeout <= 0 {
		timeout = constant.MintJobTimeout
	}
	ctx, cancel := context.WithTimeout(base, timeout)
	defer cancel()

	if err := j.run(ctx, logger); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("mint timed out after %s: %w", timeout, err)
		}
		logger.Errorf("❌ 铸造任务失败: %v", err)
		// 超时后 ctx 已失效，用 base 记录失败
		j.markFailed(base, logger, err.Error())
	}
}

func (j *MintJob) run(ctx context.Context, logger logx.Logger) error {
	s, err := j.svcCtx.StreamsDao.FindOne(ctx, j.streamID)
	if err != nil {
		return fmt.Errorf("load stream: %w", err)
	}
	if !s.VideoPath.Valid {
		return errors.New("stream has no saved video")
	}

	// 步骤 1: 上传视频
	logger.Infof("步骤 1: 上传视频 %s", s.VideoPath.String)
	videoURI, err := j.svcCtx.Storage.UploadFile(ctx, s.VideoPath.String, j.videoType)
	if err != nil {
		return fmt.Errorf("upload video: %w", err)
	}

	// 步骤 2: 构建并上传元数据
	fee := constant.ProductionSellerFeeBasisPoints
	doc := executor.BuildMetadata(executor.Moment{
		Title:                s.Title,
		CreatorWallet:        s.CreatorWallet,
		PlatformWallet:       j.svcCtx.PlatformWallet,
		Latitude:             s.Latitude,
		Longitude:            s.Longitude,
		Timestamp:            s.StartedAt,
		DurationSeconds:      s.DurationSeconds,
		VideoURI:             videoURI,
		VideoType:            j.videoType,
		SellerFeeBasisPoints: fee,
	})
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	metadataURI, err := j.svcCtx.Storage.UploadJSON(ctx, data)
	if err != nil {
		return fmt.Errorf("upload metadata: %w", err)
	}
	logger.Infof("步骤 2: 元数据已上传 uri=%s", metadataURI)

	// 步骤 3: 铸造
	result := j.svcCtx.Minter.Mint(ctx, types.MintRequest{
		MetadataURI:          metadataURI,
		VideoURI:             videoURI,
		Name:                 s.Title,
		CreatorWallet:        s.CreatorWallet,
		Network:              j.svcCtx.Config.Solana.Network,
		SellerFeeBasisPoints: &fee,
	})
	minted, ok := result.Success()
	if !ok {
		failure, _ := result.Failure()
		return errors.New(failure.Error)
	}
	logger.Infof("步骤 3: 铸造成功 mint=%s", minted.MintAddress)

	// 步骤 4: 记录 NFT，失败不影响链上结果
	nft := &model.Nfts{
		MintAddress:     minted.MintAddress,
		MetadataUri:     metadataURI,
		StreamId:        s.Id,
		Name:            s.Title,
		CreatorWallet:   s.CreatorWallet,
		Latitude:        s.Latitude,
		Longitude:       s.Longitude,
		Timestamp:       s.StartedAt,
		DurationSeconds: s.DurationSeconds,
		VideoUrl:        videoURI,
		Attributes:      toModelAttributes(doc.Attributes),
		Network:         minted.Network,
		Signature:       sql.NullString{String: minted.Signature, Valid: minted.Signature != ""},
		UpdateAuthority: minted.UpdateAuthority,
		Creators:        toModelCreators(minted.Creators),
		MintedAt:        minted.Timestamp,
		CreatedAt:       j.now(),
	}
	if err := j.svcCtx.NftsDao.Insert(ctx, nft); err != nil {
		logger.Errorf("⚠️ 保存 NFT 记录失败: %v", err)
	}

	s.VideoUri = sql.NullString{String: videoURI, Valid: true}
	s.MetadataUri = sql.NullString{String: metadataURI, Valid: true}
	s.MintAddress = sql.NullString{String: minted.MintAddress, Valid: true}
	s.MintStatus = string(constant.MintStatusMinted)
	s.MintError = sql.NullString{}
	s.UpdatedAt = j.now()
	if err := j.svcCtx.StreamsDao.Update(ctx, s); err != nil {
		logger.Errorf("⚠️ 更新 stream 铸造结果失败: %v", err)
		return nil
	}

	logger.Infof("✅ 铸造任务完成 mint=%s", minted.MintAddress)
	return nil
}

func (j *MintJob) markFailed(ctx context.Context, logger logx.Logger, reason string) {
	s, err := j.svcCtx.StreamsDao.FindOne(ctx, j.streamID)
	if err != nil {
		logger.Errorf("标记失败时读取 stream 出错: %v", err)
		return
	}
	s.MintStatus = string(constant.MintStatusFailed)
	s.MintError = sql.NullString{String: reason, Valid: true}
	s.UpdatedAt = j.now()
	if err := j.svcCtx.StreamsDao.Update(ctx, s); err != nil {
		logger.Errorf("标记失败时更新 stream 出错: %v", err)
	}
}

func toModelAttributes(in []types.MetadataAttribute) []model.Attribute {
	out := make([]model.Attribute, 0, len(in))
	for _, a := range in {
		out = append(out, model.Attribute{TraitType: a.TraitType, Value: a.Value})
	}
	return out
}

func toModelCreators(in []types.Creator) []model.Creator {
	out := make([]model.Creator, 0, len(in))
	for _, c := range in {
		out = append(out, model.Creator{Address: c.Address, Share: c.Share, Verified: c.Verified})
	}
	return out
}
