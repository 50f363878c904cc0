package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"RockFM/model"

	"github.com/redis/go-redis/v9"
)

const (
	nowPlayingKey = "room:%d:nowplaying" // String: NowPlayingInfo JSON
	nowPlayingTTL = 24 * time.Hour
)

// NowPlayingCache 正在播放状态缓存。切歌时写入，查询时作为数据库前的读穿层。
// Redis 不可用时所有方法返回错误，调用方退回数据库。
type NowPlayingCache struct {
	client *redis.Client
}

// NewNowPlayingCache 创建正在播放缓存
func NewNowPlayingCache() *NowPlayingCache {
	return &NowPlayingCache{client: RedisClient}
}

// Set 写入房间的正在播放状态
func (c *NowPlayingCache) Set(ctx context.Context, roomID int64, info *model.NowPlayingInfo) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal now playing info: %w", err)
	}

	key := fmt.Sprintf(nowPlayingKey, roomID)
	return c.client.Set(ctx, key, data, nowPlayingTTL).Err()
}

// Get 读取房间的正在播放状态，缓存未命中返回 (nil, nil)
func (c *NowPlayingCache) Get(ctx context.Context, roomID int64) (*model.NowPlayingInfo, error) {
	if c.client == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}

	key := fmt.Sprintf(nowPlayingKey, roomID)
	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var info model.NowPlayingInfo
	if err := json.Unmarshal([]byte(data), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Delete 删除房间的正在播放状态（房间关闭时调用）
func (c *NowPlayingCache) Delete(ctx context.Context, roomID int64) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	key := fmt.Sprintf(nowPlayingKey, roomID)
	return c.client.Del(ctx, key).Err()
}
