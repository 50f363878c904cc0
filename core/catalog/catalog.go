package catalog

import (
	"context"
	"errors"
	"time"

	"RockFM/core/youtube"
	"RockFM/logger"
	"RockFM/model"
	"RockFM/repository"
)

var (
	// ErrInvalidReference 引用串不是可识别的视频引用
	ErrInvalidReference = errors.New("invalid track reference")
	// ErrMetadataUnavailable 元数据抓取失败或超时
	ErrMetadataUnavailable = errors.New("track metadata unavailable")
)

// Catalog 曲目目录。按视频ID去重，首次出现时懒创建，
// 元数据通过外部抓取能力补全。
type Catalog struct {
	tracks  repository.TrackRepository
	fetcher youtube.MetadataFetcher
}

// NewCatalog 创建曲目目录
func NewCatalog(tracks repository.TrackRepository, fetcher youtube.MetadataFetcher) *Catalog {
	return &Catalog{tracks: tracks, fetcher: fetcher}
}

// Resolve 把用户提交的引用串解析成目录里的曲目。
// 先做格式校验，再查目录，目录没有才发起外部抓取。
func (c *Catalog) Resolve(ctx context.Context, ref string) (*model.Track, error) {
	videoID, ok := youtube.ExtractVideoID(ref)
	if !ok {
		return nil, ErrInvalidReference
	}

	track, err := c.tracks.GetByVideoID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if track != nil {
		return track, nil
	}

	meta, err := c.fetcher.Fetch(ctx, videoID)
	if err != nil {
		logger.Warn("[Catalog] 元数据抓取失败",
			logger.String("videoId", videoID),
			logger.ErrorField(err))
		return nil, ErrMetadataUnavailable
	}

	track = &model.Track{
		VideoID:   videoID,
		Title:     meta.Title,
		Thumbnail: meta.Thumbnail,
		CreatedAt: time.Now(),
	}
	if err := c.tracks.Create(ctx, track); err != nil {
		if repository.IsDuplicateKey(err) {
			// 并发首次解析同一视频，以先落库的为准
			return c.tracks.GetByVideoID(ctx, videoID)
		}
		return nil, err
	}

	logger.Info("[Catalog] 新曲目入库",
		logger.String("videoId", videoID),
		logger.String("title", meta.Title))
	return track, nil
}
