package model

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// NftFilter narrows an NFT listing. The bounding box is optional.
type NftFilter struct {
	Creator string
	Box     *BoundingBox
}

type BoundingBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// NftsDao defines the interface for database operations on the nfts table.
type NftsDao interface {
	Insert(ctx context.Context, data *Nfts) error
	FindOneByMintAddress(ctx context.Context, mintAddress string) (*Nfts, error)
	FindByFilter(ctx context.Context, filter NftFilter) ([]*Nfts, error)
}

type nftsDao struct {
	db *gorm.DB
}

// NewNftsDao creates a new instance of NftsDao.
func NewNftsDao(db *gorm.DB) NftsDao {
	return &nftsDao{db: db}
}

func (d *nftsDao) Insert(ctx context.Context, data *Nfts) error {
	return d.db.WithContext(ctx).Create(data).Error
}

func (d *nftsDao) FindOneByMintAddress(ctx context.Context, mintAddress string) (*Nfts, error) {
	var resp Nfts
	err := d.db.WithContext(ctx).Where("mint_address = ?", mintAddress).First(&resp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &resp, nil
}

// FindByFilter returns matching NFTs, newest first.
func (d *nftsDao) FindByFilter(ctx context.Context, filter NftFilter) ([]*Nfts, error) {
	q := d.db.WithContext(ctx)
	if filter.Creator != "" {
		q = q.Where("creator_wallet = ?", filter.Creator)
	}
	if b := filter.Box; b != nil {
		q = q.Where("latitude BETWEEN ? AND ?", b.MinLat, b.MaxLat).
			Where("longitude BETWEEN ? AND ?", b.MinLon, b.MaxLon)
	}

	var nfts []*Nfts
	if err := q.Order("timestamp DESC").Find(&nfts).Error; err != nil {
		return nil, err
	}
	return nfts, nil
}
