package nft

import (
	"context"
	"errors"
	"math"

	"nowink/internal/constant"
	"nowink/internal/errorx"
	"nowink/internal/executor"
	"nowink/internal/model"
	"nowink/internal/svc"
	"nowink/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

const (
	defaultLimit  = 50
	maxLimit      = 200
	earthRadiusKm = 6371.0
	kmPerDegree   = 111.0
)

type NftLogic struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logx.Logger
}

func NewNftLogic(ctx context.Context, svcCtx *svc.ServiceContext) *NftLogic {
	return &NftLogic{
		ctx:    ctx,
		svcCtx: svcCtx,
		Logger: logx.WithContext(ctx),
	}
}

// ListNFTs 按创作者和地理半径过滤，newest first
func (l *NftLogic) ListNFTs(req *types.ListNFTsReq) (*types.ListNFTsResp, error) {
	if req.RadiusKm < 0 || req.Limit < 0 || req.Offset < 0 {
		return nil, errorx.BadRequest("radius_km, limit and offset must not be negative")
	}
	limit := req.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	filter := model.NftFilter{Creator: req.Creator}
	if req.RadiusKm > 0 {
		filter.Box = boundingBox(req.Latitude, req.Longitude, req.RadiusKm)
	}

	rows, err := l.svcCtx.NftsDao.FindByFilter(l.ctx, filter)
	if err != nil {
		l.Errorf("查询 NFT 列表失败: %v", err)
		return nil, err
	}

	matched := make([]*model.Nfts, 0, len(rows))
	for _, n := range rows {
		if req.RadiusKm > 0 && Haversine(req.Latitude, req.Longitude, n.Latitude, n.Longitude) > req.RadiusKm {
			continue
		}
		matched = append(matched, n)
	}

	resp := &types.ListNFTsResp{NFTs: []types.NFT{}, Total: len(matched)}
	if req.Offset >= len(matched) {
		return resp, nil
	}
	end := req.Offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	for _, n := range matched[req.Offset:end] {
		resp.NFTs = append(resp.NFTs, toNFTDTO(n))
	}
	return resp, nil
}

func (l *NftLogic) GetNFT(mintAddress string) (*types.NFT, error) {
	n, err := l.svcCtx.NftsDao.FindOneByMintAddress(l.ctx, mintAddress)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, errorx.NotFound("nft not found")
		}
		return nil, err
	}
	resp := toNFTDTO(n)
	return &resp, nil
}

// Haversine returns the great-circle distance in kilometres.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// boundingBox is a coarse prefilter; nil when it would wrap a pole or the antimeridian.
func boundingBox(lat, lon, radiusKm float64) *model.BoundingBox {
	dLat := radiusKm / kmPerDegree
	cos := math.Cos(lat * math.Pi / 180)
	if cos < 0.01 {
		return nil
	}
	dLon := radiusKm / (kmPerDegree * cos)
	b := &model.BoundingBox{MinLat: lat - dLat, MaxLat: lat + dLat, MinLon: lon - dLon, MaxLon: lon + dLon}
	if b.MinLat < -90 || b.MaxLat > 90 || b.MinLon < -180 || b.MaxLon > 180 {
		return nil
	}
	return b
}

func toNFTDTO(n *model.Nfts) types.NFT {
	attrs := make([]types.MetadataAttribute, 0, len(n.Attributes))
	for _, a := range n.Attributes {
		attrs = append(attrs, types.MetadataAttribute{TraitType: a.TraitType, Value: a.Value})
	}
	creators := make([]types.Creator, 0, len(n.Creators))
	for _, c := range n.Creators {
		creators = append(creators, types.Creator{Address: c.Address, Share: c.Share, Verified: c.Verified})
	}
	return types.NFT{
		MintAddress:     n.MintAddress,
		MetadataURI:     n.MetadataUri,
		Name:            n.Name,
		Symbol:          constant.Symbol,
		Creator:         n.CreatorWallet,
		StreamID:        n.StreamId,
		Latitude:        n.Latitude,
		Longitude:       n.Longitude,
		Timestamp:       n.Timestamp,
		DurationSeconds: n.DurationSeconds,
		VideoURL:        n.VideoUrl,
		ThumbnailURL:    n.ThumbnailUrl.String,
		Attributes:      attrs,
		Network:         n.Network,
		ExplorerURL:     executor.ExplorerURL(n.MintAddress, n.Network),
		UpdateAuthority: n.UpdateAuthority,
		Creators:        creators,
		Signature:       n.Signature.String,
		MintedAt:        n.MintedAt,
	}
}
