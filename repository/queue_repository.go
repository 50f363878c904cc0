package repository

import (
	"context"
	"time"

	"RockFM/model"

	"gorm.io/gorm"
)

// QueueRepository 队列条目数据访问接口
type QueueRepository interface {
	Create(ctx context.Context, entry *model.QueueEntry) error
	GetByID(ctx context.Context, id int64) (*model.QueueEntry, error)
	GetByRoomTrack(ctx context.Context, roomID, trackID int64) (*model.QueueEntry, error)

	// ListQueued 返回房间内未播放的条目（含曲目信息和票数），
	// 票数降序，同票按创建时间先进先出
	ListQueued(ctx context.Context, roomID int64) ([]*model.QueuedSong, error)
	// ListCandidates 返回房间内全部条目（含已播放的），排序同上，选歌时用
	ListCandidates(ctx context.Context, roomID int64) ([]*model.QueueEntry, error)

	// Requeue 冷却期满后重新入队：清空 played_at，创建时间和提交者
	// 更新为本次点歌，旧票一并清掉，算一次全新的队列生命周期。
	// 条件更新：只有 played_at 仍等于调用方读到的 observedPlayedAt 时才生效，
	// 并发 PlayNext 抢先改写过的条目返回 (false, nil)，由调用方回读重评
	Requeue(ctx context.Context, entryID, addedByID int64, observedPlayedAt, now time.Time) (bool, error)
	// MarkPlayed 标记播放并清空该条目的全部投票（同一事务）
	MarkPlayed(ctx context.Context, entryID int64, playedAt time.Time) error

	// NowPlaying 返回房间内最近一次播放的条目信息，从未播放过返回 (nil, nil)
	NowPlaying(ctx context.Context, roomID int64) (*model.NowPlayingInfo, error)
	// InfoByEntry 返回指定条目的播放信息（含曲目），未找到返回 (nil, nil)
	InfoByEntry(ctx context.Context, entryID int64) (*model.NowPlayingInfo, error)
}

// gormQueueRepository GORM 实现
type gormQueueRepository struct {
	db *gorm.DB
}

// NewGormQueueRepository 创建 GORM 队列仓库
func NewGormQueueRepository(db *gorm.DB) QueueRepository {
	return &gormQueueRepository{db: db}
}

// Create 创建队列条目。(room_id, track_id) 唯一索引兜底并发重复点歌。
func (r *gormQueueRepository) Create(ctx context.Context, entry *model.QueueEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// GetByID 根据ID获取条目，未找到返回 (nil, nil)
func (r *gormQueueRepository) GetByID(ctx context.Context, id int64) (*model.QueueEntry, error) {
	var entry model.QueueEntry
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// GetByRoomTrack 按 (房间, 曲目) 获取条目，未找到返回 (nil, nil)
func (r *gormQueueRepository) GetByRoomTrack(ctx context.Context, roomID, trackID int64) (*model.QueueEntry, error) {
	var entry model.QueueEntry
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND track_id = ?", roomID, trackID).
		First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// queuedSongRow 聚合查询的扫描载体，布尔列在不同驱动下表现不一，先收整数
type queuedSongRow struct {
	EntryID   int64
	VideoID   string
	Title     string
	Thumbnail string
	AddedByID int64
	CreatedAt time.Time
	VoteCount int64
}

// ListQueued 列出未播放条目
func (r *gormQueueRepository) ListQueued(ctx context.Context, roomID int64) ([]*model.QueuedSong, error) {
	var rows []queuedSongRow
	err := r.db.WithContext(ctx).
		Table("queue_entries").
		Select(`queue_entries.id AS entry_id,
			tracks.video_id AS video_id,
			tracks.title AS title,
			tracks.thumbnail AS thumbnail,
			queue_entries.added_by_id AS added_by_id,
			queue_entries.created_at AS created_at,
			COUNT(vote_records.id) AS vote_count`).
		Joins("JOIN tracks ON tracks.id = queue_entries.track_id").
		Joins("LEFT JOIN vote_records ON vote_records.entry_id = queue_entries.id").
		Where("queue_entries.room_id = ? AND queue_entries.played_at IS NULL", roomID).
		Group("queue_entries.id, tracks.video_id, tracks.title, tracks.thumbnail, queue_entries.added_by_id, queue_entries.created_at").
		Order("vote_count DESC, queue_entries.created_at ASC, queue_entries.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	songs := make([]*model.QueuedSong, 0, len(rows))
	for _, row := range rows {
		songs = append(songs, &model.QueuedSong{
			EntryID:   row.EntryID,
			VideoID:   row.VideoID,
			Title:     row.Title,
			Thumbnail: row.Thumbnail,
			AddedByID: row.AddedByID,
			CreatedAt: row.CreatedAt,
			VoteCount: row.VoteCount,
		})
	}
	return songs, nil
}

// ListCandidates 列出全部条目，票数降序、创建时间升序
func (r *gormQueueRepository) ListCandidates(ctx context.Context, roomID int64) ([]*model.QueueEntry, error) {
	var entries []*model.QueueEntry
	err := r.db.WithContext(ctx).
		Model(&model.QueueEntry{}).
		Select("queue_entries.*").
		Joins("LEFT JOIN vote_records ON vote_records.entry_id = queue_entries.id").
		Where("queue_entries.room_id = ?", roomID).
		Group("queue_entries.id").
		Order("COUNT(vote_records.id) DESC, queue_entries.created_at ASC, queue_entries.id ASC").
		Find(&entries).Error
	return entries, err
}

// Requeue 重新入队。以读到的 played_at 为更新前提，冷却判定和这里的
// 写入之间被并发 PlayNext 插入的情况下条件不再成立，整个事务不产生效果。
func (r *gormQueueRepository) Requeue(ctx context.Context, entryID, addedByID int64, observedPlayedAt, now time.Time) (bool, error) {
	var requeued bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.QueueEntry{}).
			Where("id = ? AND played_at = ?", entryID, observedPlayedAt).
			Updates(map[string]interface{}{
				"played_at":   nil,
				"created_at":  now,
				"added_by_id": addedByID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		requeued = true
		return tx.Where("entry_id = ?", entryID).Delete(&model.VoteRecord{}).Error
	})
	return requeued, err
}

// MarkPlayed 标记播放
func (r *gormQueueRepository) MarkPlayed(ctx context.Context, entryID int64, playedAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.QueueEntry{}).
			Where("id = ?", entryID).
			Update("played_at", playedAt).Error; err != nil {
			return err
		}
		// 清票，重新入队后从零开始计票
		return tx.Where("entry_id = ?", entryID).Delete(&model.VoteRecord{}).Error
	})
}

// NowPlaying 最近一次播放的条目
func (r *gormQueueRepository) NowPlaying(ctx context.Context, roomID int64) (*model.NowPlayingInfo, error) {
	var info model.NowPlayingInfo
	err := r.db.WithContext(ctx).
		Table("queue_entries").
		Select(`queue_entries.id AS entry_id,
			queue_entries.room_id AS room_id,
			tracks.video_id AS video_id,
			tracks.title AS title,
			tracks.thumbnail AS thumbnail,
			queue_entries.played_at AS played_at`).
		Joins("JOIN tracks ON tracks.id = queue_entries.track_id").
		Where("queue_entries.room_id = ? AND queue_entries.played_at IS NOT NULL", roomID).
		Order("queue_entries.played_at DESC").
		Limit(1).
		Scan(&info).Error
	if err != nil {
		return nil, err
	}
	if info.EntryID == 0 {
		return nil, nil
	}
	return &info, nil
}

// InfoByEntry 指定条目的播放信息
func (r *gormQueueRepository) InfoByEntry(ctx context.Context, entryID int64) (*model.NowPlayingInfo, error) {
	var info model.NowPlayingInfo
	err := r.db.WithContext(ctx).
		Table("queue_entries").
		Select(`queue_entries.id AS entry_id,
			queue_entries.room_id AS room_id,
			tracks.video_id AS video_id,
			tracks.title AS title,
			tracks.thumbnail AS thumbnail,
			queue_entries.played_at AS played_at`).
		Joins("JOIN tracks ON tracks.id = queue_entries.track_id").
		Where("queue_entries.id = ?", entryID).
		Scan(&info).Error
	if err != nil {
		return nil, err
	}
	if info.EntryID == 0 {
		return nil, nil
	}
	return &info, nil
}
