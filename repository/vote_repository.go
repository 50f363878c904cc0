package repository

import (
	"context"
	"time"

	"RockFM/model"

	"gorm.io/gorm"
)

// VoteRepository 投票数据访问接口
type VoteRepository interface {
	// Toggle 有票删票、无票投票，整体在一个事务里。
	// 并发下两个请求同时走到插入分支时，唯一索引让后者失败，
	// 这种冲突按"票已存在"处理并返回 added=true，不算错误。
	Toggle(ctx context.Context, entryID, roomID, userID int64) (added bool, err error)

	// Add 幂等投票（重复点歌隐式投票用）：已有票时静默成功
	Add(ctx context.Context, entryID, roomID, userID int64) error

	Count(ctx context.Context, entryID int64) (int64, error)
	ClearByEntry(ctx context.Context, entryID int64) error

	// VotedEntryIDs 返回用户在房间内投过票的条目ID集合
	VotedEntryIDs(ctx context.Context, roomID, userID int64) (map[int64]bool, error)
}

// gormVoteRepository GORM 实现
type gormVoteRepository struct {
	db *gorm.DB
}

// NewGormVoteRepository 创建 GORM 投票仓库
func NewGormVoteRepository(db *gorm.DB) VoteRepository {
	return &gormVoteRepository{db: db}
}

// Toggle 切换投票
func (r *gormVoteRepository) Toggle(ctx context.Context, entryID, roomID, userID int64) (bool, error) {
	var added bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("entry_id = ? AND user_id = ?", entryID, userID).
			Delete(&model.VoteRecord{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			added = false
			return nil
		}

		vote := &model.VoteRecord{
			EntryID:   entryID,
			UserID:    userID,
			RoomID:    roomID,
			CreatedAt: time.Now(),
		}
		if err := tx.Create(vote).Error; err != nil {
			if IsDuplicateKey(err) {
				// 并发重复投票，票已在，按当前状态上报
				added = true
				return nil
			}
			return err
		}
		added = true
		return nil
	})
	return added, err
}

// Add 幂等投票
func (r *gormVoteRepository) Add(ctx context.Context, entryID, roomID, userID int64) error {
	vote := &model.VoteRecord{
		EntryID:   entryID,
		UserID:    userID,
		RoomID:    roomID,
		CreatedAt: time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(vote).Error; err != nil {
		if IsDuplicateKey(err) {
			return nil
		}
		return err
	}
	return nil
}

// Count 统计条目当前票数
func (r *gormVoteRepository) Count(ctx context.Context, entryID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.VoteRecord{}).
		Where("entry_id = ?", entryID).
		Count(&count).Error
	return count, err
}

// ClearByEntry 删除条目的全部投票
func (r *gormVoteRepository) ClearByEntry(ctx context.Context, entryID int64) error {
	return r.db.WithContext(ctx).
		Where("entry_id = ?", entryID).
		Delete(&model.VoteRecord{}).Error
}

// VotedEntryIDs 用户在房间内投过票的条目ID集合
func (r *gormVoteRepository) VotedEntryIDs(ctx context.Context, roomID, userID int64) (map[int64]bool, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&model.VoteRecord{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Pluck("entry_id", &ids).Error
	if err != nil {
		return nil, err
	}

	voted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		voted[id] = true
	}
	return voted, nil
}
