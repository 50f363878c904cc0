package model

import "time"

// Track 曲目目录记录。按 video_id 去重，跨房间共享，只增不删。
type Track struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	VideoID   string    `json:"videoId" gorm:"size:50;uniqueIndex;not null"`
	Title     string    `json:"title" gorm:"size:250;not null"`
	Thumbnail string    `json:"thumbnail" gorm:"size:500"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName 指定表名
func (Track) TableName() string {
	return "tracks"
}
