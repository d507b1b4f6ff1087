package types

import "time"

// ListNFTsReq 地图查询参数，radius_km > 0 时按中心点过滤
type ListNFTsReq struct {
	Latitude  float64 `form:"latitude,optional"`
	Longitude float64 `form:"longitude,optional"`
	RadiusKm  float64 `form:"radius_km,optional"`
	Creator   string  `form:"creator,optional"`
	Limit     int     `form:"limit,default=50"`
	Offset    int     `form:"offset,optional"`
}

// NFTPathReq 只携带路径参数 :mint_address 的请求
type NFTPathReq struct {
	MintAddress string `path:"mint_address"`
}

// NFT is a minted moment as served by the backend.
type NFT struct {
	MintAddress     string              `json:"mint_address"`
	MetadataURI     string              `json:"metadata_uri"`
	Name            string              `json:"name"`
	Symbol          string              `json:"symbol"`
	Creator         string              `json:"creator"`
	StreamID        string              `json:"stream_id,omitempty"`
	Latitude        float64             `json:"latitude"`
	Longitude       float64             `json:"longitude"`
	Timestamp       time.Time           `json:"timestamp"`
	DurationSeconds int                 `json:"duration_seconds"`
	VideoURL        string              `json:"video_url"`
	ThumbnailURL    string              `json:"thumbnail_url,omitempty"`
	Attributes      []MetadataAttribute `json:"attributes"`
	Network         string              `json:"network"`
	ExplorerURL     string              `json:"explorer_url"`
	UpdateAuthority string              `json:"update_authority"`
	Creators        []Creator           `json:"creators"`
	Signature       string              `json:"signature,omitempty"`
	MintedAt        time.Time           `json:"minted_at"`
}

// MintSuccess returns the mint result payload recorded for this NFT.
func (n NFT) MintSuccess() MintSuccess {
	return MintSuccess{
		MintAddress:     n.MintAddress,
		MetadataURI:     n.MetadataURI,
		Name:            n.Name,
		Symbol:          n.Symbol,
		UpdateAuthority: n.UpdateAuthority,
		Creators:        n.Creators,
		Network:         n.Network,
		Signature:       n.Signature,
		Timestamp:       n.MintedAt,
		ExplorerURL:     n.ExplorerURL,
	}
}

// ListNFTsResp defines the response body of GET /nfts.
type ListNFTsResp struct {
	NFTs  []NFT `json:"nfts"`
	Total int   `json:"total"`
}

// HealthResp GET /health
type HealthResp struct {
	Status  string `json:"status"`
	Network string `json:"network"`
}
