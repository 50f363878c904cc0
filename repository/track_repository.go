package repository

import (
	"context"

	"RockFM/model"

	"gorm.io/gorm"
)

// TrackRepository 曲目目录数据访问接口
type TrackRepository interface {
	Create(ctx context.Context, track *model.Track) error
	GetByID(ctx context.Context, id int64) (*model.Track, error)
	GetByVideoID(ctx context.Context, videoID string) (*model.Track, error)
}

// gormTrackRepository GORM 实现
type gormTrackRepository struct {
	db *gorm.DB
}

// NewGormTrackRepository 创建 GORM 曲目仓库
func NewGormTrackRepository(db *gorm.DB) TrackRepository {
	return &gormTrackRepository{db: db}
}

// Create 创建曲目。video_id 唯一索引保证并发首次解析同一视频时只落一条。
func (r *gormTrackRepository) Create(ctx context.Context, track *model.Track) error {
	return r.db.WithContext(ctx).Create(track).Error
}

// GetByID 根据ID获取曲目，未找到返回 (nil, nil)
func (r *gormTrackRepository) GetByID(ctx context.Context, id int64) (*model.Track, error) {
	var track model.Track
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&track).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &track, nil
}

// GetByVideoID 根据外部视频ID获取曲目，未找到返回 (nil, nil)
func (r *gormTrackRepository) GetByVideoID(ctx context.Context, videoID string) (*model.Track, error) {
	var track model.Track
	err := r.db.WithContext(ctx).Where("video_id = ?", videoID).First(&track).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &track, nil
}
