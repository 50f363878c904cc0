package catalog

import (
	"context"
	"errors"
	"testing"

	"RockFM/core/youtube"
	"RockFM/internal/testutil"
	"RockFM/repository"
)

// fakeFetcher 可编程的元数据抓取桩
type fakeFetcher struct {
	meta  *youtube.Metadata
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, videoID string) (*youtube.Metadata, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.meta, nil
}

func newTestCatalog(t *testing.T, fetcher youtube.MetadataFetcher) *Catalog {
	t.Helper()
	db := testutil.NewDB(t)
	return NewCatalog(repository.NewGormTrackRepository(db), fetcher)
}

func TestResolveInvalidReference(t *testing.T) {
	fetcher := &fakeFetcher{}
	c := newTestCatalog(t, fetcher)

	_, err := c.Resolve(context.Background(), "definitely not a video")
	if !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("err = %v, want ErrInvalidReference", err)
	}
	if fetcher.calls != 0 {
		t.Fatalf("fetcher called %d times before validation, want 0", fetcher.calls)
	}
}

func TestResolveFetchesOnce(t *testing.T) {
	fetcher := &fakeFetcher{meta: &youtube.Metadata{Title: "Song A", Thumbnail: "https://img/a.jpg"}}
	c := newTestCatalog(t, fetcher)
	ctx := context.Background()

	first, err := c.Resolve(ctx, "https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if first.Title != "Song A" || first.VideoID != "dQw4w9WgXcQ" {
		t.Fatalf("unexpected track: %+v", first)
	}

	// 第二次解析同一视频走目录，不再抓取
	second, err := c.Resolve(ctx, "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected deduplicated track, got ids %d and %d", first.ID, second.ID)
	}
	if fetcher.calls != 1 {
		t.Fatalf("fetcher called %d times, want 1", fetcher.calls)
	}
}

func TestResolveMetadataUnavailable(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("upstream down")}
	c := newTestCatalog(t, fetcher)

	_, err := c.Resolve(context.Background(), "dQw4w9WgXcQ")
	if !errors.Is(err, ErrMetadataUnavailable) {
		t.Fatalf("err = %v, want ErrMetadataUnavailable", err)
	}
}
