package executor

import (
	"fmt"
	"time"

	"nowink/internal/constant"
	"nowink/internal/types"
)

// Moment is everything needed to describe a captured video as an NFT.
type Moment struct {
	Title           string
	CreatorWallet   string
	PlatformWallet  string
	Latitude        float64
	Longitude       float64
	Timestamp       time.Time
	DurationSeconds int
	VideoURI        string
	VideoType       string
	// 可选的封面图
	ImageURI             string
	SellerFeeBasisPoints uint16
}

// CreatorShares returns the royalty split attached to every mint:
// platform 5% verified, creator 95% unverified.
func CreatorShares(platformWallet, creatorWallet string) []types.Creator {
	return []types.Creator{
		{Address: platformWallet, Share: constant.PlatformShare, Verified: true},
		{Address: creatorWallet, Share: constant.CreatorShare, Verified: false},
	}
}

// BuildMetadata builds the off-chain metadata document for a moment. The
// production and bootstrap flows both use it so the documents share one shape.
func BuildMetadata(m Moment) types.MetadataDocument {
	videoType := m.VideoType
	if videoType == "" {
		videoType = "video/mp4"
	}
	ts := m.Timestamp.UTC()

	return types.MetadataDocument{
		Name:                 m.Title,
		Symbol:               constant.Symbol,
		Description:          fmt.Sprintf("A moment captured at %.6f, %.6f on %s", m.Latitude, m.Longitude, ts.Format("2006-01-02")),
		Image:                m.ImageURI,
		AnimationURL:         m.VideoURI,
		ExternalURL:          constant.ExternalURL,
		SellerFeeBasisPoints: m.SellerFeeBasisPoints,
		Attributes: []types.MetadataAttribute{
			{TraitType: "Latitude", Value: fmt.Sprintf("%.6f", m.Latitude)},
			{TraitType: "Longitude", Value: fmt.Sprintf("%.6f", m.Longitude)},
			{TraitType: "Timestamp", Value: ts.Format(time.RFC3339)},
			{TraitType: "Duration", Value: fmt.Sprintf("%d", m.DurationSeconds)},
			{TraitType: "Location Type", Value: "GPS Coordinate"},
			{TraitType: "App", Value: constant.AppName},
		},
		Properties: types.MetadataProperties{
			Files:    []types.MetadataFile{{URI: m.VideoURI, Type: videoType}},
			Category: "video",
			Creators: CreatorShares(m.PlatformWallet, m.CreatorWallet),
		},
	}
}

// ExplorerURL links a mint on Solscan. Devnet links carry the cluster parameter.
func ExplorerURL(mintAddress, network string) string {
	u := "https://solscan.io/token/" + mintAddress
	if network == string(constant.NetworkDevnet) {
		u += "?cluster=devnet"
	}
	return u
}
