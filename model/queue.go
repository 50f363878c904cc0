package model

import "time"

// QueueEntry 曲目与房间的绑定关系。(room_id, track_id) 唯一：
// 重复点歌不会产生第二条记录，而是转成投票或被冷却拒绝。
// played_at 为空表示仍在队列中。
type QueueEntry struct {
	ID        int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	RoomID    int64      `json:"roomId" gorm:"uniqueIndex:idx_room_track;index:idx_room_played;not null"`
	TrackID   int64      `json:"trackId" gorm:"uniqueIndex:idx_room_track;not null"`
	AddedByID int64      `json:"addedById" gorm:"not null"`
	CreatedAt time.Time  `json:"createdAt"`
	PlayedAt  *time.Time `json:"playedAt,omitempty" gorm:"index:idx_room_played"`
}

// TableName 指定表名
func (QueueEntry) TableName() string {
	return "queue_entries"
}

// QueuedSong 队列列表项（API 响应用）
type QueuedSong struct {
	EntryID     int64     `json:"id"`
	VideoID     string    `json:"videoId"`
	Title       string    `json:"title"`
	Thumbnail   string    `json:"thumbnail"`
	AddedByID   int64     `json:"addedById"`
	CreatedAt   time.Time `json:"createdAt"`
	VoteCount   int64     `json:"voteCount"`
	ViewerVoted bool      `json:"viewerVoted"`
}

// NowPlayingInfo 正在播放信息（API 响应和 Redis 缓存用）
type NowPlayingInfo struct {
	EntryID   int64     `json:"entryId"`
	RoomID    int64     `json:"roomId"`
	VideoID   string    `json:"videoId"`
	Title     string    `json:"title"`
	Thumbnail string    `json:"thumbnail"`
	PlayedAt  time.Time `json:"playedAt"`
}
