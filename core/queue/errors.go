package queue

import "errors"

// ErrEntryNotFound 队列条目不存在（或已随房间销毁）
var ErrEntryNotFound = errors.New("queue entry not found")
