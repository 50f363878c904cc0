package queue

import "time"

// Eligible 冷却判定：从未播放过，或距上次播放已满冷却窗口。
// 点歌（重新入队）和选歌（候选过滤）共用这一个判定，
// 两边不允许各写一份。冷却永远在判定时刻对照存储的时间戳
// 惰性计算，没有后台定时器推进状态。
func Eligible(playedAt *time.Time, now time.Time, window time.Duration) bool {
	if playedAt == nil {
		return true
	}
	return now.Sub(*playedAt) >= window
}
