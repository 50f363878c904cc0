package room

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"RockFM/cache"
	"RockFM/logger"
	"RockFM/model"
	"RockFM/repository"
)

const (
	codeLength     = 6
	codeAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxCodeRetries = 10 // 36^6 码空间下基本不会用到
)

// Service 房间业务管理器
type Service struct {
	rooms   repository.RoomRepository
	users   repository.UserRepository
	npCache *cache.NowPlayingCache
}

// NewService 创建房间管理器
func NewService(rooms repository.RoomRepository, users repository.UserRepository, npCache *cache.NowPlayingCache) *Service {
	return &Service{
		rooms:   rooms,
		users:   users,
		npCache: npCache,
	}
}

// ========== 房间管理 ==========

// CreateRoom 创建房间并把创建者设为房主。
// 已在其他房间的用户不能建房；成员表 user_id 唯一索引兜底并发建房。
func (s *Service) CreateRoom(ctx context.Context, userID int64) (*model.Room, error) {
	membership, err := s.rooms.GetMembership(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("查询成员关系失败: %w", err)
	}
	if membership != nil {
		return nil, ErrAlreadyInRoom
	}

	for i := 0; i < maxCodeRetries; i++ {
		newRoom := &model.Room{
			Code:      generateCode(),
			HostID:    userID,
			CreatedAt: time.Now(),
		}

		err := s.rooms.CreateWithHost(ctx, newRoom)
		if err == nil {
			logger.Info("房间创建成功",
				logger.Int64("roomId", newRoom.ID),
				logger.String("code", newRoom.Code),
				logger.Int64("hostId", userID))
			return newRoom, nil
		}

		if repository.IsDuplicateKey(err) {
			// 冲突可能来自房间码，也可能来自并发建房/加入时的成员唯一索引，
			// 回读成员表区分两种情况
			if m, mErr := s.rooms.GetMembership(ctx, userID); mErr == nil && m != nil {
				return nil, ErrAlreadyInRoom
			}
			continue // 房间码撞了，换一个重试
		}
		return nil, fmt.Errorf("创建房间失败: %w", err)
	}

	return nil, fmt.Errorf("无法生成唯一房间码")
}

// generateCode 生成6位大写字母数字房间码
func generateCode() string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// JoinRoom 按房间码加入房间
func (s *Service) JoinRoom(ctx context.Context, userID int64, code string) (*model.Room, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	target, err := s.rooms.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("查询房间失败: %w", err)
	}
	if target == nil {
		return nil, ErrRoomNotFound
	}

	// 先行检查只是优化，最终由成员唯一索引兜底
	membership, err := s.rooms.GetMembership(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("查询成员关系失败: %w", err)
	}
	if membership != nil {
		return nil, ErrAlreadyInRoom
	}

	member := &model.RoomMember{
		RoomID:   target.ID,
		UserID:   userID,
		JoinedAt: time.Now(),
	}
	if err := s.rooms.AddMember(ctx, member); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, ErrAlreadyInRoom
		}
		return nil, fmt.Errorf("加入房间失败: %w", err)
	}

	logger.Info("用户加入房间",
		logger.Int64("roomId", target.ID),
		logger.Int64("userId", userID))
	return target, nil
}

// LeaveRoom 离开当前房间。房主离开时销毁房间并级联清理
// 队列和投票，普通成员离开只移除成员关系。
// 返回值 closed 表示房间是否因此关闭。
func (s *Service) LeaveRoom(ctx context.Context, userID int64) (closed bool, err error) {
	membership, err := s.rooms.GetMembership(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("查询成员关系失败: %w", err)
	}
	if membership == nil {
		return false, ErrNotInRoom
	}

	if membership.IsHost {
		if err := s.rooms.DeleteCascade(ctx, membership.RoomID); err != nil {
			return false, fmt.Errorf("销毁房间失败: %w", err)
		}
		if err := s.npCache.Delete(ctx, membership.RoomID); err != nil {
			logger.Warn("清理正在播放缓存失败",
				logger.Int64("roomId", membership.RoomID),
				logger.ErrorField(err))
		}
		logger.Info("房主离开，房间已销毁",
			logger.Int64("roomId", membership.RoomID),
			logger.Int64("hostId", userID))
		return true, nil
	}

	if err := s.rooms.RemoveMember(ctx, membership.RoomID, userID); err != nil {
		return false, fmt.Errorf("移除成员失败: %w", err)
	}
	logger.Info("用户离开房间",
		logger.Int64("roomId", membership.RoomID),
		logger.Int64("userId", userID))
	return false, nil
}

// CurrentRoom 获取用户当前所在的房间，不在任何房间返回 (nil, nil)。
// 成员关系是唯一权威来源，没有缓存指针需要同步。
func (s *Service) CurrentRoom(ctx context.Context, userID int64) (*model.Room, error) {
	membership, err := s.rooms.GetMembership(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("查询成员关系失败: %w", err)
	}
	if membership == nil {
		return nil, nil
	}
	return s.rooms.GetByID(ctx, membership.RoomID)
}

// RoomDetail 房间详情（成员列表、人数、调用者是否房主）
func (s *Service) RoomDetail(ctx context.Context, userID int64) (*model.RoomInfo, error) {
	current, err := s.CurrentRoom(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNotInRoom
	}

	members, err := s.rooms.GetMembers(ctx, current.ID)
	if err != nil {
		return nil, fmt.Errorf("查询成员列表失败: %w", err)
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	names, err := s.users.GetUsernames(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("查询用户名失败: %w", err)
	}

	info := &model.RoomInfo{
		Room:        *current,
		HostName:    names[current.HostID],
		MemberCount: len(members),
		IsHost:      current.HostID == userID,
	}
	for _, m := range members {
		if name, ok := names[m.UserID]; ok {
			info.Members = append(info.Members, name)
		}
	}
	return info, nil
}
