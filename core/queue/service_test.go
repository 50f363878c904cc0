package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"RockFM/cache"
	"RockFM/core/room"
	"RockFM/internal/testutil"
	"RockFM/model"
	"RockFM/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const testCooldown = 10 * time.Minute

type queueFixture struct {
	svc   *Service
	votes repository.VoteRepository
	db    *gorm.DB
	room  *model.Room
	host  *model.User
	guest *model.User
}

func newQueueFixture(t *testing.T) *queueFixture {
	t.Helper()
	db := testutil.NewDB(t)

	host := &model.User{Username: "alice", PasswordHash: "x", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	guest := &model.User{Username: "bob", PasswordHash: "x", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := db.Create(host).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(guest).Error; err != nil {
		t.Fatal(err)
	}

	r := &model.Room{Code: "TEST01", HostID: host.ID, CreatedAt: time.Now()}
	if err := db.Create(r).Error; err != nil {
		t.Fatal(err)
	}
	for _, u := range []*model.User{host, guest} {
		m := &model.RoomMember{RoomID: r.ID, UserID: u.ID, IsHost: u.ID == host.ID, JoinedAt: time.Now()}
		if err := db.Create(m).Error; err != nil {
			t.Fatal(err)
		}
	}

	votes := repository.NewGormVoteRepository(db)
	svc := NewService(
		repository.NewGormQueueRepository(db),
		votes,
		repository.NewGormRoomRepository(db),
		cache.NewNowPlayingCache(),
		testCooldown,
	)
	return &queueFixture{svc: svc, votes: votes, db: db, room: r, host: host, guest: guest}
}

func (f *queueFixture) createTrack(t *testing.T, videoID, title string) *model.Track {
	t.Helper()
	track := &model.Track{VideoID: videoID, Title: title, CreatedAt: time.Now()}
	if err := f.db.Create(track).Error; err != nil {
		t.Fatal(err)
	}
	return track
}

func TestEligible(t *testing.T) {
	now := time.Now()
	recent := now.Add(-5 * time.Minute)
	stale := now.Add(-15 * time.Minute)

	tests := []struct {
		name     string
		playedAt *time.Time
		want     bool
	}{
		{"never played", nil, true},
		{"inside window", &recent, false},
		{"window elapsed", &stale, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Eligible(tt.playedAt, now, testCooldown); got != tt.want {
				t.Errorf("Eligible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubmitAccepted(t *testing.T) {
	f := newQueueFixture(t)
	ctx := context.Background()
	track := f.createTrack(t, "dQw4w9WgXcQ", "Song A")

	res, err := f.svc.Submit(ctx, f.room.ID, f.guest.ID, track)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Status != SubmitAccepted {
		t.Fatalf("status = %s, want %s", res.Status, SubmitAccepted)
	}
	if res.Entry == nil || res.Entry.AddedByID != f.guest.ID || res.Entry.PlayedAt != nil {
		t.Errorf("unexpected entry: %+v", res.Entry)
	}

	// 新入队条目票数为 0
	count, err := f.votes.Count(ctx, res.Entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("vote count = %d, want 0", count)
	}
}

func TestSubmitDuplicateBecomesVote(t *testing.T) {
	f := newQueueFixture(t)
	ctx := context.Background()
	track := f.createTrack(t, "dQw4w9WgXcQ", "Song A")

	first, err := f.svc.Submit(ctx, f.room.ID, f.guest.ID, track)
	if err != nil {
		t.Fatal(err)
	}

	res, err := f.svc.Submit(ctx, f.room.ID, f.host.ID, track)
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if res.Status != SubmitVoteRegistered {
		t.Fatalf("status = %s, want %s", res.Status, SubmitVoteRegistered)
	}
	if res.Entry.ID != first.Entry.ID {
		t.Errorf("duplicate created a second entry: %d vs %d", res.Entry.ID, first.Entry.ID)
	}

	count, _ := f.votes.Count(ctx, first.Entry.ID)
	if count != 1 {
		t.Errorf("vote count = %d, want 1", count)
	}

	// 同一用户再点一次只保留一票
	if _, err := f.svc.Submit(ctx, f.room.ID, f.host.ID, track); err != nil {
		t.Fatal(err)
	}
	count, _ = f.votes.Count(ctx, first.Entry.ID)
	if count != 1 {
		t.Errorf("vote count after repeat = %d, want 1", count)
	}
}

func TestSubmitCooldownRejected(t *testing.T) {
	f := newQueueFixture(t)
	ctx := context.Background()
	track := f.createTrack(t, "dQw4w9WgXcQ", "Song A")

	first, _ := f.svc.Submit(ctx, f.room.ID, f.guest.ID, track)
	playedAt := time.Now().Add(-5 * time.Minute)
	if err := f.db.Model(&model.QueueEntry{}).Where("id = ?", first.Entry.ID).
		Update("played_at", playedAt).Error; err != nil {
		t.Fatal(err)
	}

	res, err := f.svc.Submit(ctx, f.room.ID, f.host.ID, track)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Status != SubmitCooldownRejected {
		t.Fatalf("status = %s, want %s", res.Status, SubmitCooldownRejected)
	}
}

func TestSubmitRequeueAfterCooldown(t *testing.T) {
	f := newQueueFixture(t)
	ctx := context.Background()
	track := f.createTrack(t, "dQw4w9WgXcQ", "Song A")

	first, _ := f.svc.Submit(ctx, f.room.ID, f.guest.ID, track)
	// 播过一次并带一票，冷却期已过
	playedAt := time.Now().Add(-testCooldown - time.Minute)
	if err := f.db.Model(&model.QueueEntry{}).Where("id = ?", first.Entry.ID).
		Update("played_at", playedAt).Error; err != nil {
		t.Fatal(err)
	}
	if err := f.votes.Add(ctx, first.Entry.ID, f.room.ID, f.guest.ID); err != nil {
		t.Fatal(err)
	}

	res, err := f.svc.Submit(ctx, f.room.ID, f.host.ID, track)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Status != SubmitAccepted {
		t.Fatalf("status = %s, want %s", res.Status, SubmitAccepted)
	}
	if res.Entry.ID != first.Entry.ID {
		t.Errorf("requeue created a second entry")
	}
	if res.Entry.PlayedAt != nil {
		t.Error("requeued entry still marked played")
	}
	if res.Entry.AddedByID != f.host.ID {
		t.Errorf("AddedByID = %d, want resubmitter %d", res.Entry.AddedByID, f.host.ID)
	}

	// 重新入队是全新的生命周期，旧票清零
	count, _ := f.votes.Count(ctx, res.Entry.ID)
	if count != 0 {
		t.Errorf("vote count after requeue = %d, want 0", count)
	}
}

func TestSubmitRequeueRefreshesNowPlaying(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.RedisClient = client
	t.Cleanup(func() {
		client.Close()
		cache.RedisClient = nil
	})

	f := newQueueFixture(t)
	ctx := context.Background()
	track := f.createTrack(t, "dQw4w9WgXcQ", "Song A")

	if _, err := f.svc.Submit(ctx, f.room.ID, f.guest.ID, track); err != nil {
		t.Fatal(err)
	}
	played, err := f.svc.PlayNext(ctx, f.room.ID, f.host.ID)
	if err != nil {
		t.Fatalf("PlayNext: %v", err)
	}

	cached, err := f.svc.NowPlaying(ctx, f.room.ID)
	if err != nil {
		t.Fatal(err)
	}
	if cached == nil || cached.EntryID != played.EntryID {
		t.Fatalf("now playing before requeue = %+v, want entry %d", cached, played.EntryID)
	}

	// 冷却期满后重新点歌，这首歌不再是"最近一次播放"
	stale := time.Now().Add(-testCooldown - time.Minute)
	if err := f.db.Model(&model.QueueEntry{}).Where("id = ?", played.EntryID).
		Update("played_at", stale).Error; err != nil {
		t.Fatal(err)
	}
	res, err := f.svc.Submit(ctx, f.room.ID, f.host.ID, track)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != SubmitAccepted {
		t.Fatalf("status = %s, want %s", res.Status, SubmitAccepted)
	}

	// 缓存必须随重新入队失效，不能继续上报已回到队列的条目
	info, err := f.svc.NowPlaying(ctx, f.room.ID)
	if err != nil {
		t.Fatal(err)
	}
	if info != nil {
		t.Fatalf("requeued entry still reported as now playing: %+v", info)
	}
}

func TestRequeueConditionalOnObservedTimestamp(t *testing.T) {
	f := newQueueFixture(t)
	ctx := context.Background()
	track := f.createTrack(t, "dQw4w9WgXcQ", "Song A")
	repo := repository.NewGormQueueRepository(f.db)

	first, _ := f.svc.Submit(ctx, f.room.ID, f.guest.ID, track)
	playedAt := time.Now().Add(-testCooldown - time.Minute)
	if err := f.db.Model(&model.QueueEntry{}).Where("id = ?", first.Entry.ID).
		Update("played_at", playedAt).Error; err != nil {
		t.Fatal(err)
	}
	if err := f.votes.Add(ctx, first.Entry.ID, f.room.ID, f.guest.ID); err != nil {
		t.Fatal(err)
	}

	entry, err := repo.GetByID(ctx, first.Entry.ID)
	if err != nil {
		t.Fatal(err)
	}

	// 过期的观察值：更新不生效，播放状态和票都原样保留
	ok, err := repo.Requeue(ctx, entry.ID, f.host.ID, entry.PlayedAt.Add(-time.Hour), time.Now())
	if err != nil {
		t.Fatalf("Requeue: %v", err)
	}
	if ok {
		t.Fatal("requeue succeeded against a stale observed timestamp")
	}
	unchanged, _ := repo.GetByID(ctx, entry.ID)
	if unchanged.PlayedAt == nil {
		t.Fatal("played_at was cleared despite the failed condition")
	}
	count, _ := f.votes.Count(ctx, entry.ID)
	if count != 1 {
		t.Fatalf("votes = %d after failed requeue, want 1", count)
	}

	// 观察值与存储一致：正常重新入队并清票
	ok, err = repo.Requeue(ctx, entry.ID, f.host.ID, *entry.PlayedAt, time.Now())
	if err != nil {
		t.Fatalf("Requeue: %v", err)
	}
	if !ok {
		t.Fatal("requeue failed with the matching observed timestamp")
	}
	requeued, _ := repo.GetByID(ctx, entry.ID)
	if requeued.PlayedAt != nil {
		t.Fatal("played_at not cleared")
	}
	count, _ = f.votes.Count(ctx, entry.ID)
	if count != 0 {
		t.Fatalf("votes = %d after requeue, want 0", count)
	}
}

// requeueContender 在条件更新落库前抢先写入新的播放时间，
// 模拟并发 PlayNext 在冷却判定和重新入队之间选中了同一条目
type requeueContender struct {
	repository.QueueRepository
	db *gorm.DB
}

func (r *requeueContender) Requeue(ctx context.Context, entryID, addedByID int64, observedPlayedAt, now time.Time) (bool, error) {
	if err := r.db.Model(&model.QueueEntry{}).Where("id = ?", entryID).
		Update("played_at", time.Now()).Error; err != nil {
		return false, err
	}
	return r.QueueRepository.Requeue(ctx, entryID, addedByID, observedPlayedAt, now)
}

func TestSubmitRequeueYieldsToConcurrentPlay(t *testing.T) {
	f := newQueueFixture(t)
	ctx := context.Background()
	track := f.createTrack(t, "dQw4w9WgXcQ", "Song A")

	first, _ := f.svc.Submit(ctx, f.room.ID, f.guest.ID, track)
	stale := time.Now().Add(-testCooldown - time.Minute)
	if err := f.db.Model(&model.QueueEntry{}).Where("id = ?", first.Entry.ID).
		Update("played_at", stale).Error; err != nil {
		t.Fatal(err)
	}

	svc := NewService(
		&requeueContender{QueueRepository: repository.NewGormQueueRepository(f.db), db: f.db},
		f.votes,
		repository.NewGormRoomRepository(f.db),
		cache.NewNowPlayingCache(),
		testCooldown,
	)

	// 这首歌刚被并发选中播放：重新入队必须让步，不能抹掉新的播放标记
	res, err := svc.Submit(ctx, f.room.ID, f.host.ID, track)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Status != SubmitCooldownRejected {
		t.Fatalf("status = %s, want %s", res.Status, SubmitCooldownRejected)
	}

	var entry model.QueueEntry
	if err := f.db.First(&entry, first.Entry.ID).Error; err != nil {
		t.Fatal(err)
	}
	if entry.PlayedAt == nil {
		t.Fatal("fresh played_at was erased by the losing requeue")
	}
}

func TestListQueuedOrdering(t *testing.T) {
	f := newQueueFixture(t)
	ctx := context.Background()

	trackA := f.createTrack(t, "aaaaaaaaaaa", "Song A")
	trackB := f.createTrack(t, "bbbbbbbbbbb", "Song B")
	trackC := f.createTrack(t, "ccccccccccc", "Song C")

	resA, _ := f.svc.Submit(ctx, f.room.ID, f.guest.ID, trackA)
	resB, _ := f.svc.Submit(ctx, f.room.ID, f.guest.ID, trackB)
	resC, _ := f.svc.Submit(ctx, f.room.ID, f.guest.ID, trackC)

	// B 两票，C 一票，A 零票；同票（零票以外没有并列）按入队先后
	if err := f.votes.Add(ctx, resB.Entry.ID, f.room.ID, f.guest.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.votes.Add(ctx, resB.Entry.ID, f.room.ID, f.host.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.votes.Add(ctx, resC.Entry.ID, f.room.ID, f.host.ID); err != nil {
		t.Fatal(err)
	}

	songs, err := f.svc.ListQueued(ctx, f.room.ID, f.guest.ID)
	if err != nil {
		t.Fatalf("ListQueued: %v", err)
	}
	if len(songs) != 3 {
		t.Fatalf("len = %d, want 3", len(songs))
	}

	wantOrder := []int64{resB.Entry.ID, resC.Entry.ID, resA.Entry.ID}
	for i, want := range wantOrder {
		if songs[i].EntryID != want {
			t.Errorf("position %d: entry %d, want %d", i, songs[i].EntryID, want)
		}
	}
	if songs[0].VoteCount != 2 || songs[1].VoteCount != 1 || songs[2].VoteCount != 0 {
		t.Errorf("vote counts = %d,%d,%d", songs[0].VoteCount, songs[1].VoteCount, songs[2].VoteCount)
	}

	// 查看者只在 B 上有票
	if !songs[0].ViewerVoted || songs[1].ViewerVoted || songs[2].ViewerVoted {
		t.Errorf("viewer voted flags = %v,%v,%v", songs[0].ViewerVoted, songs[1].ViewerVoted, songs[2].ViewerVoted)
	}
}

func TestListQueuedTieBreakFIFO(t *testing.T) {
	f := newQueueFixture(t)
	ctx := context.Background()

	trackA := f.createTrack(t, "aaaaaaaaaaa", "Song A")
	trackB := f.createTrack(t, "bbbbbbbbbbb", "Song B")

	// 手工错开入队时间保证先后关系确定
	older := &model.QueueEntry{RoomID: f.room.ID, TrackID: trackA.ID, AddedByID: f.guest.ID, CreatedAt: time.Now().Add(-time.Minute)}
	newer := &model.QueueEntry{RoomID: f.room.ID, TrackID: trackB.ID, AddedByID: f.guest.ID, CreatedAt: time.Now()}
	if err := f.db.Create(older).Error; err != nil {
		t.Fatal(err)
	}
	if err := f.db.Create(newer).Error; err != nil {
		t.Fatal(err)
	}

	songs, err := f.svc.ListQueued(ctx, f.room.ID, f.guest.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(songs) != 2 || songs[0].EntryID != older.ID {
		t.Errorf("tie break should favor older entry, got order %v", []int64{songs[0].EntryID, songs[1].EntryID})
	}
}

func TestListQueuedExcludesPlayed(t *testing.T) {
	f := newQueueFixture(t)
	ctx := context.Background()
	track := f.createTrack(t, "dQw4w9WgXcQ", "Song A")

	res, _ := f.svc.Submit(ctx, f.room.ID, f.guest.ID, track)
	playedAt := time.Now()
	if err := f.db.Model(&model.QueueEntry{}).Where("id = ?", res.Entry.ID).
		Update("played_at", playedAt).Error; err != nil {
		t.Fatal(err)
	}

	songs, err := f.svc.ListQueued(ctx, f.room.ID, f.guest.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(songs) != 0 {
		t.Errorf("played entry still listed: %d songs", len(songs))
	}
}

func TestPlayNextPicksTopVoted(t *testing.T) {
	f := newQueueFixture(t)
	ctx := context.Background()

	trackA := f.createTrack(t, "aaaaaaaaaaa", "Song A")
	trackB := f.createTrack(t, "bbbbbbbbbbb", "Song B")
	resA, _ := f.svc.Submit(ctx, f.room.ID, f.guest.ID, trackA)
	resB, _ := f.svc.Submit(ctx, f.room.ID, f.guest.ID, trackB)
	if err := f.votes.Add(ctx, resB.Entry.ID, f.room.ID, f.host.ID); err != nil {
		t.Fatal(err)
	}

	info, err := f.svc.PlayNext(ctx, f.room.ID, f.host.ID)
	if err != nil {
		t.Fatalf("PlayNext: %v", err)
	}
	if info == nil || info.EntryID != resB.Entry.ID {
		t.Fatalf("picked %+v, want entry %d", info, resB.Entry.ID)
	}
	if info.VideoID != trackB.VideoID {
		t.Errorf("VideoID = %s, want %s", info.VideoID, trackB.VideoID)
	}

	// 选中条目打上播放时间，票清零
	var entry model.QueueEntry
	if err := f.db.First(&entry, resB.Entry.ID).Error; err != nil {
		t.Fatal(err)
	}
	if entry.PlayedAt == nil {
		t.Error("played entry has no played_at")
	}
	count, _ := f.votes.Count(ctx, resB.Entry.ID)
	if count != 0 {
		t.Errorf("votes not cleared: %d", count)
	}

	// 剩下 A 没动
	var other model.QueueEntry
	if err := f.db.First(&other, resA.Entry.ID).Error; err != nil {
		t.Fatal(err)
	}
	if other.PlayedAt != nil {
		t.Error("unpicked entry marked played")
	}
}

func TestPlayNextTieBreakOlderFirst(t *testing.T) {
	f := newQueueFixture(t)
	ctx := context.Background()

	trackA := f.createTrack(t, "aaaaaaaaaaa", "Song A")
	trackB := f.createTrack(t, "bbbbbbbbbbb", "Song B")

	// 两首同票，先入队的先播
	older := &model.QueueEntry{RoomID: f.room.ID, TrackID: trackA.ID, AddedByID: f.guest.ID, CreatedAt: time.Now().Add(-time.Minute)}
	newer := &model.QueueEntry{RoomID: f.room.ID, TrackID: trackB.ID, AddedByID: f.guest.ID, CreatedAt: time.Now()}
	if err := f.db.Create(older).Error; err != nil {
		t.Fatal(err)
	}
	if err := f.db.Create(newer).Error; err != nil {
		t.Fatal(err)
	}
	for _, e := range []*model.QueueEntry{older, newer} {
		if err := f.votes.Add(ctx, e.ID, f.room.ID, f.guest.ID); err != nil {
			t.Fatal(err)
		}
	}

	info, err := f.svc.PlayNext(ctx, f.room.ID, f.host.ID)
	if err != nil {
		t.Fatalf("PlayNext: %v", err)
	}
	if info == nil || info.EntryID != older.ID {
		t.Fatalf("picked %+v, want older entry %d", info, older.ID)
	}
}

func TestPlayNextSkipsCooling(t *testing.T) {
	f := newQueueFixture(t)
	ctx := context.Background()

	trackA := f.createTrack(t, "aaaaaaaaaaa", "Song A")
	trackB := f.createTrack(t, "bbbbbbbbbbb", "Song B")
	resA, _ := f.svc.Submit(ctx, f.room.ID, f.guest.ID, trackA)
	resB, _ := f.svc.Submit(ctx, f.room.ID, f.guest.ID, trackB)

	// A 票多但刚播过，应跳过选 B
	if err := f.votes.Add(ctx, resA.Entry.ID, f.room.ID, f.guest.ID); err != nil {
		t.Fatal(err)
	}
	playedAt := time.Now().Add(-time.Minute)
	if err := f.db.Model(&model.QueueEntry{}).Where("id = ?", resA.Entry.ID).
		Update("played_at", playedAt).Error; err != nil {
		t.Fatal(err)
	}

	info, err := f.svc.PlayNext(ctx, f.room.ID, f.host.ID)
	if err != nil {
		t.Fatalf("PlayNext: %v", err)
	}
	if info == nil || info.EntryID != resB.Entry.ID {
		t.Fatalf("picked %+v, want entry %d", info, resB.Entry.ID)
	}
}

// laterSelection 在标记播放后立刻把另一条目标成更晚播放，
// 模拟同房间两次并发切歌先后落库
type laterSelection struct {
	repository.QueueRepository
	db      *gorm.DB
	otherID int64
}

func (r *laterSelection) MarkPlayed(ctx context.Context, entryID int64, playedAt time.Time) error {
	if err := r.QueueRepository.MarkPlayed(ctx, entryID, playedAt); err != nil {
		return err
	}
	return r.db.Model(&model.QueueEntry{}).Where("id = ?", r.otherID).
		Update("played_at", playedAt.Add(time.Second)).Error
}

func TestPlayNextReportsOwnSelection(t *testing.T) {
	f := newQueueFixture(t)
	ctx := context.Background()

	trackA := f.createTrack(t, "aaaaaaaaaaa", "Song A")
	trackB := f.createTrack(t, "bbbbbbbbbbb", "Song B")
	resA, _ := f.svc.Submit(ctx, f.room.ID, f.guest.ID, trackA)
	resB, _ := f.svc.Submit(ctx, f.room.ID, f.guest.ID, trackB)
	if err := f.votes.Add(ctx, resA.Entry.ID, f.room.ID, f.guest.ID); err != nil {
		t.Fatal(err)
	}

	svc := NewService(
		&laterSelection{
			QueueRepository: repository.NewGormQueueRepository(f.db),
			db:              f.db,
			otherID:         resB.Entry.ID,
		},
		f.votes,
		repository.NewGormRoomRepository(f.db),
		cache.NewNowPlayingCache(),
		testCooldown,
	)

	// 上报的必须是本次选中的条目，而不是房间里最近落库的那次播放
	info, err := svc.PlayNext(ctx, f.room.ID, f.host.ID)
	if err != nil {
		t.Fatalf("PlayNext: %v", err)
	}
	if info == nil || info.EntryID != resA.Entry.ID {
		t.Fatalf("reported %+v, want own selection %d", info, resA.Entry.ID)
	}
	if info.VideoID != trackA.VideoID {
		t.Errorf("VideoID = %s, want %s", info.VideoID, trackA.VideoID)
	}
}

func TestPlayNextNothingPlayable(t *testing.T) {
	f := newQueueFixture(t)
	ctx := context.Background()

	// 空房间
	info, err := f.svc.PlayNext(ctx, f.room.ID, f.host.ID)
	if err != nil {
		t.Fatalf("PlayNext: %v", err)
	}
	if info != nil {
		t.Fatalf("expected nil info, got %+v", info)
	}

	// 仅有的歌在冷却中
	track := f.createTrack(t, "dQw4w9WgXcQ", "Song A")
	res, _ := f.svc.Submit(ctx, f.room.ID, f.guest.ID, track)
	playedAt := time.Now().Add(-time.Minute)
	if err := f.db.Model(&model.QueueEntry{}).Where("id = ?", res.Entry.ID).
		Update("played_at", playedAt).Error; err != nil {
		t.Fatal(err)
	}
	info, err = f.svc.PlayNext(ctx, f.room.ID, f.host.ID)
	if err != nil {
		t.Fatalf("PlayNext: %v", err)
	}
	if info != nil {
		t.Fatalf("cooling entry was picked: %+v", info)
	}
}

func TestPlayNextForbiddenForNonHost(t *testing.T) {
	f := newQueueFixture(t)

	if _, err := f.svc.PlayNext(context.Background(), f.room.ID, f.guest.ID); !errors.Is(err, room.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestPlayNextRoomNotFound(t *testing.T) {
	f := newQueueFixture(t)

	if _, err := f.svc.PlayNext(context.Background(), 99999, f.host.ID); !errors.Is(err, room.ErrRoomNotFound) {
		t.Fatalf("err = %v, want ErrRoomNotFound", err)
	}
}

func TestNowPlayingFallsBackToDB(t *testing.T) {
	// 测试环境没有 Redis，NowPlaying 走数据库回源路径
	f := newQueueFixture(t)
	ctx := context.Background()

	info, err := f.svc.NowPlaying(ctx, f.room.ID)
	if err != nil {
		t.Fatalf("NowPlaying: %v", err)
	}
	if info != nil {
		t.Fatalf("expected nil before anything played, got %+v", info)
	}

	track := f.createTrack(t, "dQw4w9WgXcQ", "Song A")
	if _, err := f.svc.Submit(ctx, f.room.ID, f.guest.ID, track); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.PlayNext(ctx, f.room.ID, f.host.ID); err != nil {
		t.Fatal(err)
	}

	info, err = f.svc.NowPlaying(ctx, f.room.ID)
	if err != nil {
		t.Fatalf("NowPlaying: %v", err)
	}
	if info == nil || info.VideoID != track.VideoID {
		t.Fatalf("info = %+v, want video %s", info, track.VideoID)
	}
}

func TestRoomQueueIsolation(t *testing.T) {
	f := newQueueFixture(t)
	ctx := context.Background()

	other := &model.Room{Code: "TEST02", HostID: f.host.ID, CreatedAt: time.Now()}
	if err := f.db.Create(other).Error; err != nil {
		t.Fatal(err)
	}

	// 同一首歌可以同时出现在两个房间的队列里
	track := f.createTrack(t, "dQw4w9WgXcQ", "Song A")
	if _, err := f.svc.Submit(ctx, f.room.ID, f.guest.ID, track); err != nil {
		t.Fatal(err)
	}
	res, err := f.svc.Submit(ctx, other.ID, f.host.ID, track)
	if err != nil {
		t.Fatalf("Submit to second room: %v", err)
	}
	if res.Status != SubmitAccepted {
		t.Fatalf("status = %s, want %s", res.Status, SubmitAccepted)
	}

	songs, err := f.svc.ListQueued(ctx, f.room.ID, f.guest.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(songs) != 1 {
		t.Errorf("first room queue len = %d, want 1", len(songs))
	}
}
