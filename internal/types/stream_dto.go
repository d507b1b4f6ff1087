package types

import "time"

// StartStreamReq defines the request to open a new recording session.
type StartStreamReq struct {
	Title     string  `json:"title,optional"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	IsPublic  bool    `json:"is_public,optional"`
}

// StreamPathReq 只携带路径参数 :id 的请求
type StreamPathReq struct {
	ID string `path:"id"`
}

// Stream is a server-tracked recording session.
type Stream struct {
	ID              string     `json:"id"`
	CreatorWallet   string     `json:"creator_wallet"`
	Title           string     `json:"title"`
	Latitude        float64    `json:"latitude"`
	Longitude       float64    `json:"longitude"`
	IsPublic        bool       `json:"is_public"`
	IsLive          bool       `json:"is_live"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationSeconds int        `json:"duration_seconds"`
	ViewerCount     int        `json:"viewer_count"`
	// 铸造完成后才会填充
	MintAddress string `json:"mint_address,omitempty"`
	MetadataURI string `json:"metadata_uri,omitempty"`
	VideoURI    string `json:"video_uri,omitempty"`
	MintStatus  string `json:"mint_status,omitempty"` // pending/minted/failed
	MintError   string `json:"mint_error,omitempty"`
}

// MintInfo 保存视频后返回的铸造状态，mint_address 在异步铸造完成前为空
type MintInfo struct {
	MintAddress string `json:"mint_address,omitempty"`
	MetadataURI string `json:"metadata_uri,omitempty"`
	Status      string `json:"status"`
}

// SaveStreamResp defines the response body of POST /streams/:id/save.
type SaveStreamResp struct {
	StreamID string   `json:"stream_id"`
	Mint     MintInfo `json:"mint"`
	Message  string   `json:"message"`
}

// ListStreamsResp 直播列表
type ListStreamsResp struct {
	Streams []Stream `json:"streams"`
	Total   int      `json:"total"`
}
