package model

import (
	"database/sql"
	"time"
)

// Streams corresponds to the streams table in the database.
type Streams struct {
	Id              string         `db:"id" gorm:"primaryKey"`
	CreatorWallet   string         `db:"creator_wallet" gorm:"index"`
	Title           string         `db:"title"`
	Latitude        float64        `db:"latitude"`
	Longitude       float64        `db:"longitude"`
	IsPublic        bool           `db:"is_public"`
	IsLive          bool           `db:"is_live" gorm:"index"`
	StartedAt       time.Time      `db:"started_at"`
	EndedAt         sql.NullTime   `db:"ended_at"`
	DurationSeconds int            `db:"duration_seconds"`
	ViewerCount     int            `db:"viewer_count"`
	VideoPath       sql.NullString `db:"video_path"`
	VideoUri        sql.NullString `db:"video_uri"`
	MintAddress     sql.NullString `db:"mint_address"`
	MetadataUri     sql.NullString `db:"metadata_uri"`
	MintStatus      string         `db:"mint_status"`
	MintError       sql.NullString `db:"mint_error"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

// Nfts corresponds to the nfts table in the database.
type Nfts struct {
	MintAddress     string         `db:"mint_address" gorm:"primaryKey"`
	MetadataUri     string         `db:"metadata_uri"`
	StreamId        string         `db:"stream_id" gorm:"index"`
	Name            string         `db:"name"`
	CreatorWallet   string         `db:"creator_wallet" gorm:"index"`
	Latitude        float64        `db:"latitude"`
	Longitude       float64        `db:"longitude"`
	Timestamp       time.Time      `db:"timestamp" gorm:"index"`
	DurationSeconds int            `db:"duration_seconds"`
	VideoUrl        string         `db:"video_url"`
	ThumbnailUrl    sql.NullString `db:"thumbnail_url"`
	Attributes      []Attribute    `db:"attributes" gorm:"serializer:json"`
	Network         string         `db:"network"`
	Signature       sql.NullString `db:"signature"`
	UpdateAuthority string         `db:"update_authority"`
	Creators        []Creator      `db:"creators" gorm:"serializer:json"`
	MintedAt        time.Time      `db:"minted_at"`
	CreatedAt       time.Time      `db:"created_at"`
}

// Creator is one royalty entry recorded on chain.
type Creator struct {
	Address  string `json:"address"`
	Share    uint8  `json:"share"`
	Verified bool   `json:"verified"`
}

// Attribute is one trait_type/value pair stored with an NFT.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// AuthNonces holds issued sign-in nonces until they are used or expire.
type AuthNonces struct {
	Nonce         string    `db:"nonce" gorm:"primaryKey"`
	WalletAddress string    `db:"wallet_address" gorm:"index"`
	ExpiresAt     time.Time `db:"expires_at"`
	CreatedAt     time.Time `db:"created_at"`
}
