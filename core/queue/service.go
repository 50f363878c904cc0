package queue

import (
	"context"
	"fmt"
	"time"

	"RockFM/cache"
	"RockFM/core/room"
	"RockFM/logger"
	"RockFM/model"
	"RockFM/repository"
)

// SubmitStatus 点歌结果的三种情况
type SubmitStatus string

const (
	// SubmitAccepted 新条目入队（含冷却期满后的重新入队）
	SubmitAccepted SubmitStatus = "accepted"
	// SubmitVoteRegistered 歌已在队列里，本次点歌算作一票
	SubmitVoteRegistered SubmitStatus = "vote_registered"
	// SubmitCooldownRejected 歌刚播过，仍在冷却窗口内
	SubmitCooldownRejected SubmitStatus = "cooldown_rejected"
)

// SubmitResult 点歌结果
type SubmitResult struct {
	Status SubmitStatus      `json:"status"`
	Entry  *model.QueueEntry `json:"entry,omitempty"`
}

// Service 队列与选歌业务管理器
type Service struct {
	queue    repository.QueueRepository
	votes    repository.VoteRepository
	rooms    repository.RoomRepository
	npCache  *cache.NowPlayingCache
	cooldown time.Duration
}

// NewService 创建队列管理器
func NewService(
	queue repository.QueueRepository,
	votes repository.VoteRepository,
	rooms repository.RoomRepository,
	npCache *cache.NowPlayingCache,
	cooldown time.Duration,
) *Service {
	return &Service{
		queue:    queue,
		votes:    votes,
		rooms:    rooms,
		npCache:  npCache,
		cooldown: cooldown,
	}
}

// ========== 点歌 ==========

// Submit 点歌。按序评估：
//  1. 房间里没有这首歌 → 建新条目入队
//  2. 已在队列（未播放）→ 算作点歌人的一票（幂等）
//  3. 播过且冷却期满 → 清票重新入队；仍在冷却 → 拒绝
func (s *Service) Submit(ctx context.Context, roomID, userID int64, track *model.Track) (*SubmitResult, error) {
	entry, err := s.queue.GetByRoomTrack(ctx, roomID, track.ID)
	if err != nil {
		return nil, fmt.Errorf("查询队列条目失败: %w", err)
	}

	if entry == nil {
		newEntry := &model.QueueEntry{
			RoomID:    roomID,
			TrackID:   track.ID,
			AddedByID: userID,
			CreatedAt: time.Now(),
		}
		err := s.queue.Create(ctx, newEntry)
		if err == nil {
			logger.Info("[Submit] 新歌入队",
				logger.Int64("roomId", roomID),
				logger.Int64("entryId", newEntry.ID),
				logger.String("videoId", track.VideoID))
			return &SubmitResult{Status: SubmitAccepted, Entry: newEntry}, nil
		}
		if !repository.IsDuplicateKey(err) {
			return nil, fmt.Errorf("创建队列条目失败: %w", err)
		}
		// 并发点了同一首歌，回读后按"歌已存在"的分支继续
		entry, err = s.queue.GetByRoomTrack(ctx, roomID, track.ID)
		if err != nil {
			return nil, fmt.Errorf("查询队列条目失败: %w", err)
		}
		if entry == nil {
			return nil, fmt.Errorf("队列条目插入冲突后未找到")
		}
	}

	for {
		if entry.PlayedAt == nil {
			// 隐式投票：重复点同一首在队歌曲不产生第二个条目，
			// 唯一索引保证同一用户多次点也只有一票
			if err := s.votes.Add(ctx, entry.ID, roomID, userID); err != nil {
				return nil, fmt.Errorf("登记投票失败: %w", err)
			}
			logger.Info("[Submit] 重复点歌转为投票",
				logger.Int64("roomId", roomID),
				logger.Int64("entryId", entry.ID),
				logger.Int64("userId", userID))
			return &SubmitResult{Status: SubmitVoteRegistered, Entry: entry}, nil
		}

		if !Eligible(entry.PlayedAt, time.Now(), s.cooldown) {
			return &SubmitResult{Status: SubmitCooldownRejected, Entry: entry}, nil
		}

		// 冷却期满：重新入队，算一次全新的队列生命周期。
		// 冷却判定只是先行检查，条件更新以读到的 played_at 为准：
		// 并发 PlayNext 在判定和写入之间选中这首歌时更新不生效，回读重评
		ok, err := s.queue.Requeue(ctx, entry.ID, userID, *entry.PlayedAt, time.Now())
		if err != nil {
			return nil, fmt.Errorf("重新入队失败: %w", err)
		}
		if !ok {
			entry, err = s.queue.GetByID(ctx, entry.ID)
			if err != nil {
				return nil, fmt.Errorf("查询队列条目失败: %w", err)
			}
			if entry == nil {
				return nil, fmt.Errorf("队列条目在重新入队时被删除")
			}
			continue
		}

		entry, err = s.queue.GetByID(ctx, entry.ID)
		if err != nil {
			return nil, fmt.Errorf("查询队列条目失败: %w", err)
		}

		// 重新入队改变了"最近一次播放"的归属，正在播放缓存按数据库现状重算
		s.refreshNowPlaying(ctx, roomID)

		logger.Info("[Submit] 冷却期满重新入队",
			logger.Int64("roomId", roomID),
			logger.Int64("entryId", entry.ID))
		return &SubmitResult{Status: SubmitAccepted, Entry: entry}, nil
	}
}

// refreshNowPlaying 以数据库为准重算房间的正在播放缓存。
// 缓存只是数据库前的读穿层，写入失败降级为纯数据库路径。
func (s *Service) refreshNowPlaying(ctx context.Context, roomID int64) {
	info, err := s.queue.NowPlaying(ctx, roomID)
	if err != nil {
		logger.Warn("[Submit] 重算正在播放失败",
			logger.Int64("roomId", roomID),
			logger.ErrorField(err))
		return
	}

	if info == nil {
		if err := s.npCache.Delete(ctx, roomID); err != nil {
			logger.Warn("[Submit] 清理正在播放缓存失败",
				logger.Int64("roomId", roomID),
				logger.ErrorField(err))
		}
		return
	}
	if err := s.npCache.Set(ctx, roomID, info); err != nil {
		logger.Warn("[Submit] 写入正在播放缓存失败",
			logger.Int64("roomId", roomID),
			logger.ErrorField(err))
	}
}

// ListQueued 列出房间队列（未播放条目），票数降序、同票先进先出，
// 并标记查看者投过票的条目。只读，无副作用。
func (s *Service) ListQueued(ctx context.Context, roomID, viewerID int64) ([]*model.QueuedSong, error) {
	songs, err := s.queue.ListQueued(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("查询队列失败: %w", err)
	}

	voted, err := s.votes.VotedEntryIDs(ctx, roomID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("查询投票记录失败: %w", err)
	}
	for _, song := range songs {
		song.ViewerVoted = voted[song.EntryID]
	}
	return songs, nil
}

// ========== 选歌 ==========

// PlayNext 选出下一首播放的歌，仅房主可调用。
// 候选按票数降序、创建时间升序扫描，取第一个通过冷却判定的条目；
// 选中后写入播放时间并清票。没有可播条目返回 (nil, nil)，
// 这是正常结果（等一会儿再试），不是错误。
func (s *Service) PlayNext(ctx context.Context, roomID, callerID int64) (*model.NowPlayingInfo, error) {
	target, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("查询房间失败: %w", err)
	}
	if target == nil {
		return nil, room.ErrRoomNotFound
	}
	if target.HostID != callerID {
		return nil, room.ErrForbidden
	}

	candidates, err := s.queue.ListCandidates(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("查询候选条目失败: %w", err)
	}

	now := time.Now()
	for _, candidate := range candidates {
		if !Eligible(candidate.PlayedAt, now, s.cooldown) {
			continue
		}

		if err := s.queue.MarkPlayed(ctx, candidate.ID, now); err != nil {
			return nil, fmt.Errorf("标记播放失败: %w", err)
		}

		// 以刚选中的条目为准上报，不取房间维度的"最近播放"：
		// 同房间并发切歌时后者可能已经是别人的选择
		info, err := s.queue.InfoByEntry(ctx, candidate.ID)
		if err != nil {
			return nil, fmt.Errorf("查询播放信息失败: %w", err)
		}
		if info == nil {
			return nil, fmt.Errorf("选中的队列条目已不存在")
		}

		if err := s.npCache.Set(ctx, roomID, info); err != nil {
			logger.Warn("[PlayNext] 写入正在播放缓存失败",
				logger.Int64("roomId", roomID),
				logger.ErrorField(err))
		}

		logger.Info("[PlayNext] 选中下一首",
			logger.Int64("roomId", roomID),
			logger.Int64("entryId", candidate.ID))
		return info, nil
	}

	return nil, nil
}

// NowPlaying 房间当前正在播放的条目，从未播放过返回 (nil, nil)。
// 先读缓存，Redis 不可用或未命中时回源数据库。
func (s *Service) NowPlaying(ctx context.Context, roomID int64) (*model.NowPlayingInfo, error) {
	if info, err := s.npCache.Get(ctx, roomID); err == nil && info != nil {
		return info, nil
	}

	info, err := s.queue.NowPlaying(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("查询正在播放失败: %w", err)
	}
	return info, nil
}
