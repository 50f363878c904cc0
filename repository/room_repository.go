package repository

import (
	"context"

	"RockFM/model"

	"gorm.io/gorm"
)

// RoomRepository 房间数据访问接口
type RoomRepository interface {
	// 房间 CRUD
	CreateWithHost(ctx context.Context, room *model.Room) error
	GetByID(ctx context.Context, id int64) (*model.Room, error)
	GetByCode(ctx context.Context, code string) (*model.Room, error)
	DeleteCascade(ctx context.Context, roomID int64) error

	// 成员管理
	AddMember(ctx context.Context, member *model.RoomMember) error
	RemoveMember(ctx context.Context, roomID, userID int64) error
	GetMembership(ctx context.Context, userID int64) (*model.RoomMember, error)
	GetMembers(ctx context.Context, roomID int64) ([]*model.RoomMember, error)
	IsMember(ctx context.Context, roomID, userID int64) (bool, error)
}

// gormRoomRepository GORM 实现
type gormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository 创建 GORM 房间仓库
func NewGormRoomRepository(db *gorm.DB) RoomRepository {
	return &gormRoomRepository{db: db}
}

// ========== 房间 CRUD ==========

// CreateWithHost 在同一事务内创建房间并把房主写入成员表，
// 避免出现没有房主成员的半成品房间。
func (r *gormRoomRepository) CreateWithHost(ctx context.Context, room *model.Room) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			return err
		}
		member := &model.RoomMember{
			RoomID:   room.ID,
			UserID:   room.HostID,
			IsHost:   true,
			JoinedAt: room.CreatedAt,
		}
		return tx.Create(member).Error
	})
}

// GetByID 根据ID获取房间，未找到返回 (nil, nil)
func (r *gormRoomRepository) GetByID(ctx context.Context, id int64) (*model.Room, error) {
	var room model.Room
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&room).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &room, nil
}

// GetByCode 根据房间码获取房间，未找到返回 (nil, nil)
func (r *gormRoomRepository) GetByCode(ctx context.Context, code string) (*model.Room, error) {
	var room model.Room
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&room).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &room, nil
}

// DeleteCascade 删除房间及其全部依赖数据。
// 顺序：投票 → 队列条目 → 成员 → 房间，整体在一个事务里，
// 任何一步失败都不会留下悬空引用。
func (r *gormRoomRepository) DeleteCascade(ctx context.Context, roomID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", roomID).Delete(&model.VoteRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("room_id = ?", roomID).Delete(&model.QueueEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("room_id = ?", roomID).Delete(&model.RoomMember{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", roomID).Delete(&model.Room{}).Error
	})
}

// ========== 成员管理 ==========

// AddMember 添加成员。user_id 唯一索引保证并发加入时只有一个成功。
func (r *gormRoomRepository) AddMember(ctx context.Context, member *model.RoomMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// RemoveMember 移除成员
func (r *gormRoomRepository) RemoveMember(ctx context.Context, roomID, userID int64) error {
	return r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&model.RoomMember{}).Error
}

// GetMembership 获取用户当前的成员关系，不在任何房间返回 (nil, nil)
func (r *gormRoomRepository) GetMembership(ctx context.Context, userID int64) (*model.RoomMember, error) {
	var member model.RoomMember
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&member).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

// GetMembers 获取房间成员列表（按加入时间排序）
func (r *gormRoomRepository) GetMembers(ctx context.Context, roomID int64) ([]*model.RoomMember, error) {
	var members []*model.RoomMember
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

// IsMember 判断用户是否为房间成员
func (r *gormRoomRepository) IsMember(ctx context.Context, roomID, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	return count > 0, err
}
