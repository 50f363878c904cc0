package model

import "time"

// VoteRecord 用户对队列条目的投票。(entry_id, user_id) 唯一索引是并发去重的
// 最终权威，应用层的存在性检查只是优化。
type VoteRecord struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	EntryID   int64     `json:"entryId" gorm:"uniqueIndex:idx_entry_user;not null"`
	UserID    int64     `json:"userId" gorm:"uniqueIndex:idx_entry_user;not null"`
	RoomID    int64     `json:"roomId" gorm:"index;not null"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName 指定表名
func (VoteRecord) TableName() string {
	return "vote_records"
}
