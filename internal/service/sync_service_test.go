package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/haierkeys/course-sync/internal/domain"
	"github.com/haierkeys/course-sync/pkg/code"
	"github.com/haierkeys/course-sync/pkg/workerpool"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls int
	seen  []*domain.Course
	err   error
}

func (n *recordingNotifier) Notify(ctx context.Context, courses []*domain.Course) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	n.seen = courses
	return n.err
}

type failingDownloader struct {
	fail string
	next Downloader
}

func (d *failingDownloader) Download(ctx context.Context, course *domain.Course, f *domain.File) error {
	if f.ContentFilename == d.fail {
		return errors.New("connection reset")
	}
	return d.next.Download(ctx, course, f)
}

func newTestSync(t *testing.T, cfg SyncConfig, d Downloader) (SyncService, StateService) {
	t.Helper()
	state, _ := newTestState(t, nil)
	pool := workerpool.New(&workerpool.Config{MaxWorkers: 4, QueueSize: 8}, zap.NewNop())
	t.Cleanup(func() { _ = pool.Shutdown(context.Background()) })
	if d == nil {
		d = &RecordOnlyDownloader{Root: "/data"}
	}
	return NewSyncService(state, d, pool, cfg, zap.NewNop()), state
}

func algebra(files ...*domain.File) []*domain.Course {
	return []*domain.Course{{ID: 5, Fullname: "Algebra", Files: files}}
}

func TestSyncScenario(t *testing.T) {
	svc, _ := newTestSync(t, SyncConfig{}, nil)
	ctx := context.Background()

	first, err := svc.Run(ctx, algebra(pdf("slides.pdf", 1000, 100)))
	require.NoError(t, err)
	assert.Equal(t, 1, first.Summary.New)
	assert.NotEmpty(t, first.RunID)

	n, err := svc.Notify(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	notes := pdf("notes.pdf", 5, 100)
	res, err := svc.Run(ctx, algebra(pdf("slides.pdf", 1200, 200), notes))
	require.NoError(t, err)
	require.Len(t, res.Changes, 1)
	assert.Equal(t, int64(5), res.Changes[0].ID)
	require.Len(t, res.Changes[0].Files, 2)

	slides := res.Changes[0].Files[0]
	assert.Equal(t, "slides.pdf", slides.ContentFilename)
	assert.True(t, slides.Modified)
	require.NotNil(t, slides.OldFile)
	assert.Equal(t, int64(1000), slides.OldFile.ContentFilesize)
	assert.Equal(t, filepath.Join("/data", "Algebra", "slides.pdf"), slides.SavedTo)

	added := res.Changes[0].Files[1]
	assert.Equal(t, "notes.pdf", added.ContentFilename)
	assert.True(t, added.IsNew())
	assert.NotZero(t, added.FileID)

	// a rerun without remote changes is empty
	again, err := svc.Run(ctx, algebra(pdf("slides.pdf", 1200, 200), pdf("notes.pdf", 5, 100)))
	require.NoError(t, err)
	assert.Empty(t, again.Changes)
}

func TestSyncDescriptionHashOnly(t *testing.T) {
	svc, _ := newTestSync(t, SyncConfig{}, nil)
	ctx := context.Background()

	desc := func(hash string) *domain.File {
		return &domain.File{
			ModuleID: 3, SectionName: "Week 1", ModuleName: "Intro", ModuleModname: "label",
			ContentFilepath: "/", ContentFilename: "Intro", ContentType: domain.ContentTypeDescription,
			Hash: hash,
		}
	}

	_, err := svc.Run(ctx, algebra(desc("h1")))
	require.NoError(t, err)

	res, err := svc.Run(ctx, algebra(desc("h2")))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Summary.Modified)
	assert.Equal(t, 1, res.Summary.Total())
}

func TestSyncMove(t *testing.T) {
	svc, state := newTestSync(t, SyncConfig{}, nil)
	ctx := context.Background()

	at := func(dir string) *domain.File {
		f := pdf("f.pdf", 10, 100)
		f.ContentFilepath = dir
		f.ContentFileurl = "u"
		return f
	}

	_, err := svc.Run(ctx, algebra(at("/A/")))
	require.NoError(t, err)
	_, err = svc.Notify(ctx)
	require.NoError(t, err)

	res, err := svc.Run(ctx, algebra(at("/B/")))
	require.NoError(t, err)
	require.Equal(t, 1, res.Summary.Moved)
	moved := res.Changes[0].Files[0]
	assert.Equal(t, "/A/", moved.OldFile.ContentFilepath)

	pending, err := state.ChangesToNotify(ctx)
	require.NoError(t, err)
	require.Len(t, pending[0].Files, 1)
	assert.True(t, pending[0].Files[0].Moved)
	require.NotNil(t, pending[0].Files[0].NewFile)
	assert.Equal(t, "/B/", pending[0].Files[0].NewFile.ContentFilepath)
}

func TestSyncDeletionsArePreMarked(t *testing.T) {
	failing := &failingDownloader{fail: "new.pdf", next: &RecordOnlyDownloader{Root: "/data"}}
	svc, state := newTestSync(t, SyncConfig{}, failing)
	ctx := context.Background()

	post := pdf("post", 1, 1)
	post.ModuleModname = "forum"
	_, err := svc.Run(ctx, algebra(pdf("old.pdf", 1, 1), post))
	require.NoError(t, err)
	_, err = svc.Notify(ctx)
	require.NoError(t, err)

	// the only download fails; the deletion is already recorded
	res, err := svc.Run(ctx, algebra(pdf("new.pdf", 1, 1)))
	assert.ErrorIs(t, err, code.ErrorDownloadFailed)
	assert.Equal(t, 1, res.Summary.Deleted, "forum post removal is suppressed")

	pending, err := state.ChangesToNotify(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Len(t, pending[0].Files, 1)
	assert.True(t, pending[0].Files[0].Deleted)
	assert.Equal(t, "old.pdf", pending[0].Files[0].ContentFilename)
}

func TestNotifyKeepsChangesWhenAChannelFails(t *testing.T) {
	svc, _ := newTestSync(t, SyncConfig{}, nil)
	ctx := context.Background()

	_, err := svc.Run(ctx, algebra(pdf("a.pdf", 1, 1)))
	require.NoError(t, err)

	ok := &recordingNotifier{}
	broken := &recordingNotifier{err: errors.New("smtp down")}
	_, err = svc.Notify(ctx, ok, broken)
	assert.ErrorIs(t, err, code.ErrorNotifyFailed)

	n, err := svc.Notify(ctx, ok, &LogNotifier{Logger: zap.NewNop()})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, ok.calls)

	n, err = svc.Notify(ctx, ok)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 2, ok.calls, "nothing pending, channels are not called")
}

func TestSyncConfigFiltersAndOverlay(t *testing.T) {
	cfg := SyncConfig{
		DontDownloadCourseIDs: []int64{6},
		Courses: []CourseConfig{{
			ID:                       5,
			OverwriteNameWith:        "Linear Algebra",
			CreateDirectoryStructure: true,
			ExcludedSections:         []int64{200},
		}},
	}
	svc, _ := newTestSync(t, cfg, nil)
	ctx := context.Background()

	hidden := pdf("hidden.pdf", 1, 1)
	hidden.SectionID = 200
	current := []*domain.Course{
		{ID: 5, Fullname: "Algebra", Files: []*domain.File{pdf("a.pdf", 1, 1), hidden}},
		{ID: 6, Fullname: "Biology", Files: []*domain.File{pdf("cells.pdf", 1, 1)}},
	}

	res, err := svc.Run(ctx, current)
	require.NoError(t, err)
	require.Len(t, res.Changes, 1)
	c := res.Changes[0]
	assert.Equal(t, "Linear Algebra", c.DisplayName())
	require.Len(t, c.Files, 1)
	assert.Equal(t, filepath.Join("/data", "Linear Algebra", "Week 1", "a.pdf"), c.Files[0].SavedTo)

	assert.True(t, cfg.ShouldSync(5))
	assert.False(t, cfg.ShouldSync(6))
	only := SyncConfig{DownloadCourseIDs: []int64{6}, DontDownloadCourseIDs: []int64{6}}
	assert.True(t, only.ShouldSync(6))
	assert.False(t, only.ShouldSync(5))
}

func TestSyncFilteredCourseIsNotDeleted(t *testing.T) {
	state, _ := newTestState(t, nil)
	ctx := context.Background()
	saveAll(t, state, []*domain.Course{{ID: 6, Fullname: "Biology", Files: []*domain.File{pdf("cells.pdf", 1, 1)}}})

	svc := NewSyncService(state, &RecordOnlyDownloader{Root: "/data"}, nil, SyncConfig{DownloadCourseIDs: []int64{5}}, nil)
	res, err := svc.Run(ctx, algebra(pdf("a.pdf", 1, 1)))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Summary.New)
	assert.Zero(t, res.Summary.Deleted)
}

func TestSyncExcludedSectionIsNotDeleted(t *testing.T) {
	state, _ := newTestState(t, nil)
	ctx := context.Background()

	hidden := pdf("hidden.pdf", 1, 1)
	hidden.SectionID = 200
	saveAll(t, state, algebra(pdf("a.pdf", 1, 1), hidden))

	cfg := SyncConfig{Courses: []CourseConfig{{ID: 5, ExcludedSections: []int64{200}}}}
	svc := NewSyncService(state, &RecordOnlyDownloader{Root: "/data"}, nil, cfg, nil)

	again := pdf("hidden.pdf", 1, 1)
	again.SectionID = 200
	res, err := svc.Run(ctx, algebra(pdf("a.pdf", 1, 1), again))
	require.NoError(t, err)
	assert.Zero(t, res.Summary.Deleted)
	assert.Empty(t, res.Changes)

	stored, err := state.GetStoredFiles(ctx)
	require.NoError(t, err)
	require.Len(t, stored[0].Files, 2, "excluded rows stay untouched in the store")
}

func TestDatabaseServiceOfflineFiles(t *testing.T) {
	state, _ := newTestState(t, nil)
	ctx := context.Background()

	dir := t.TempDir()
	present := pdf("present.pdf", 1, 1)
	present.SavedTo = filepath.Join(dir, "present.pdf")
	require.NoError(t, os.WriteFile(present.SavedTo, []byte("x"), 0o644))
	missing := pdf("missing.pdf", 1, 1)
	missing.SavedTo = filepath.Join(dir, "missing.pdf")
	saveAll(t, state, algebra(present, missing))

	db := NewDatabaseService(state, nil)
	offline, err := db.OfflineFiles(ctx)
	require.NoError(t, err)
	require.Len(t, offline, 1)
	require.Len(t, offline[0].Files, 1)
	assert.Equal(t, missing.FileID, offline[0].Files[0].FileID)

	n, err := db.DeleteOfflineFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	offline, err = db.OfflineFiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, offline)

	n, err = db.DeleteFiles(ctx, []int64{present.FileID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSyncMetrics(t *testing.T) {
	state, _ := newTestState(t, nil)
	ctx := context.Background()
	m := NewSyncMetrics()
	failing := &failingDownloader{fail: "b.pdf", next: &RecordOnlyDownloader{Root: "/data"}}
	svc := NewSyncService(state, failing, nil, SyncConfig{}, nil, WithMetrics(m))

	_, err := svc.Run(ctx, algebra(pdf("a.pdf", 1, 1), pdf("b.pdf", 1, 1)))
	assert.ErrorIs(t, err, code.ErrorDownloadFailed)
	_, err = svc.Notify(ctx)
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.runs))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.changes.WithLabelValues("new")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.downloadFailure))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.notified))
	assert.Zero(t, testutil.ToFloat64(m.lastSuccess), "failed run leaves the success time unset")

	path := filepath.Join(t.TempDir(), "sync.prom")
	require.NoError(t, m.WriteToTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "course_sync_runs_total 1")
}

func TestSavePath(t *testing.T) {
	c := &domain.Course{ID: 5, Fullname: "CS 101/102", CreateDirectoryStructure: true}
	f := pdf("a:b.pdf", 1, 1)
	f.SectionName = "Week 1: Intro"
	f.ContentFilepath = "/slides/../old/"

	assert.Equal(t, filepath.Join("/data", "CS 101_102", "Week 1_ Intro", "slides", "old", "a_b.pdf"), SavePath("/data", c, f))
}
