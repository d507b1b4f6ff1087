package model

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AuthNoncesDao stores sign-in nonces. Consume deletes a nonce so it can be used once.
type AuthNoncesDao interface {
	Insert(ctx context.Context, data *AuthNonces) error
	Consume(ctx context.Context, nonce, walletAddress string) (*AuthNonces, error)
}

type authNoncesDao struct {
	db *gorm.DB
}

func NewAuthNoncesDao(db *gorm.DB) AuthNoncesDao {
	return &authNoncesDao{db: db}
}

func (d *authNoncesDao) Insert(ctx context.Context, data *AuthNonces) error {
	return d.db.WithContext(ctx).Create(data).Error
}

// Consume removes and returns the nonce issued to walletAddress.
func (d *authNoncesDao) Consume(ctx context.Context, nonce, walletAddress string) (*AuthNonces, error) {
	var deleted []AuthNonces
	res := d.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("nonce = ? AND wallet_address = ?", nonce, walletAddress).
		Delete(&deleted)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 || len(deleted) == 0 {
		return nil, ErrNotFound
	}
	return &deleted[0], nil
}
