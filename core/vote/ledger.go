package vote

import (
	"context"
	"fmt"

	"RockFM/core/queue"
	"RockFM/core/room"
	"RockFM/logger"
	"RockFM/repository"
)

// ToggleResult 投票切换结果
type ToggleResult struct {
	Added     bool  `json:"added"`
	VoteCount int64 `json:"voteCount"`
}

// Ledger 投票账本。一人一票，切换式：有票删、无票投。
type Ledger struct {
	votes   repository.VoteRepository
	entries repository.QueueRepository
	rooms   repository.RoomRepository
}

// NewLedger 创建投票账本
func NewLedger(votes repository.VoteRepository, entries repository.QueueRepository, rooms repository.RoomRepository) *Ledger {
	return &Ledger{
		votes:   votes,
		entries: entries,
		rooms:   rooms,
	}
}

// Toggle 切换用户对条目的投票。只有条目所在房间的成员可以投；
// 并发下同一用户同时投同一条目时，唯一索引把后到的插入打回，
// 按"票已存在"上报当前状态而不是报错。
func (l *Ledger) Toggle(ctx context.Context, entryID, userID int64) (*ToggleResult, error) {
	entry, err := l.entries.GetByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("查询队列条目失败: %w", err)
	}
	if entry == nil {
		return nil, queue.ErrEntryNotFound
	}

	isMember, err := l.rooms.IsMember(ctx, entry.RoomID, userID)
	if err != nil {
		return nil, fmt.Errorf("查询成员关系失败: %w", err)
	}
	if !isMember {
		return nil, room.ErrForbidden
	}

	added, err := l.votes.Toggle(ctx, entryID, entry.RoomID, userID)
	if err != nil {
		return nil, fmt.Errorf("切换投票失败: %w", err)
	}

	count, err := l.votes.Count(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("统计票数失败: %w", err)
	}

	logger.Info("投票切换",
		logger.Int64("entryId", entryID),
		logger.Int64("userId", userID),
		logger.Bool("added", added),
		logger.Int64("voteCount", count))
	return &ToggleResult{Added: added, VoteCount: count}, nil
}

// Count 条目当前票数
func (l *Ledger) Count(ctx context.Context, entryID int64) (int64, error) {
	return l.votes.Count(ctx, entryID)
}

// ClearAll 清空条目的全部投票。播放后调用，重新入队的歌从零计票。
func (l *Ledger) ClearAll(ctx context.Context, entryID int64) error {
	return l.votes.ClearByEntry(ctx, entryID)
}
