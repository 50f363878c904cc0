package model

import "time"

// Room 听歌房
type Room struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Code      string    `json:"code" gorm:"size:6;uniqueIndex;not null"`
	HostID    int64     `json:"hostId" gorm:"index;not null"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName 指定表名
func (Room) TableName() string {
	return "rooms"
}

// RoomMember 房间成员。user_id 上的唯一索引保证一个用户同时最多只在一个房间，
// 成员关系是唯一权威来源，用户身上不再冗余 current_room 指针。
type RoomMember struct {
	ID       int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	RoomID   int64     `json:"roomId" gorm:"index;not null"`
	UserID   int64     `json:"userId" gorm:"uniqueIndex;not null"`
	IsHost   bool      `json:"isHost" gorm:"default:false"`
	JoinedAt time.Time `json:"joinedAt"`
}

// TableName 指定表名
func (RoomMember) TableName() string {
	return "room_members"
}

// RoomInfo 房间完整信息（API 响应用）
type RoomInfo struct {
	Room
	HostName    string   `json:"hostName"`
	MemberCount int      `json:"memberCount"`
	Members     []string `json:"members,omitempty"`
	IsHost      bool     `json:"isHost"`
}
