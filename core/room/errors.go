package room

import "errors"

// 房间相关的领域结果。这些是调用方需要在正常流程里处理的冲突，
// 不是内部故障。
var (
	ErrAlreadyInRoom = errors.New("user already in a room")
	ErrRoomNotFound  = errors.New("room not found")
	ErrNotInRoom     = errors.New("user not in a room")
	ErrForbidden     = errors.New("operation not allowed")
)
