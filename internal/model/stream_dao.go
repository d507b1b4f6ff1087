package model

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrNotFound = gorm.ErrRecordNotFound

// StreamsDao defines the interface for database operations on the streams table.
type StreamsDao interface {
	Insert(ctx context.Context, data *Streams) error
	FindOne(ctx context.Context, id string) (*Streams, error)
	Update(ctx context.Context, data *Streams) error
	// MarkPending 原子地把未铸造或失败的 stream 置为 pending，返回是否抢到
	MarkPending(ctx context.Context, id, wallet string, now time.Time) (bool, error)
	FindLive(ctx context.Context, limit int) ([]*Streams, error)
}

type streamsDao struct {
	db *gorm.DB
}

// NewStreamsDao creates a new instance of StreamsDao.
func NewStreamsDao(db *gorm.DB) StreamsDao {
	return &streamsDao{
		db: db,
	}
}

// Insert adds a new record to the streams table.
func (d *streamsDao) Insert(ctx context.Context, data *Streams) error {
	return d.db.WithContext(ctx).Create(data).Error
}

// FindOne retrieves a single stream record by its id.
func (d *streamsDao) FindOne(ctx context.Context, id string) (*Streams, error) {
	var resp Streams
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&resp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &resp, nil
}

// Update writes every column of the stream back.
func (d *streamsDao) Update(ctx context.Context, data *Streams) error {
	return d.db.WithContext(ctx).Save(data).Error
}

// MarkPending claims the stream for minting with a conditional update, so
// concurrent saves of the same stream cannot both start a mint.
func (d *streamsDao) MarkPending(ctx context.Context, id, wallet string, now time.Time) (bool, error) {
	result := d.db.WithContext(ctx).Model(&Streams{}).
		Where("id = ? AND creator_wallet = ? AND mint_status IN ?", id, wallet, []string{"", "failed"}).
		Updates(map[string]any{
			"mint_status": "pending",
			"mint_error":  nil,
			"updated_at":  now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// FindLive retrieves public streams that are still live, newest first.
func (d *streamsDao) FindLive(ctx context.Context, limit int) ([]*Streams, error) {
	var streams []*Streams
	q := d.db.WithContext(ctx).Where("is_live = ? AND is_public = ?", true, true).Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&streams).Error; err != nil {
		return nil, err
	}
	return streams, nil
}
