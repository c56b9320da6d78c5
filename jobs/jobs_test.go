package jobs

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFiles() []File {
	return []File{
		{Filename: "a.pdf", Path: "/uploads/x_a.pdf"},
		{Filename: "b.pdf", Path: "/uploads/x_b.pdf"},
	}
}

func TestJob_Lifecycle(t *testing.T) {
	job := New(testFiles())
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, StatusPending, job.Status)
	assert.Equal(t, 2, job.Total)

	job.Start()
	job.Begin(1, "a.pdf")
	assert.Equal(t, StatusProcessing, job.Status)
	assert.Equal(t, 1, job.CurrentIndex)
	assert.Equal(t, "a.pdf", job.CurrentFile)

	job.Record(Result{OriginalName: "a.pdf", Status: StatusCompleted})
	assert.Equal(t, 1, job.Processed)

	job.Finish(nil)
	assert.Equal(t, StatusCompleted, job.Status)

	job.Finish(errors.New("disk full"))
	assert.Equal(t, StatusFailed, job.Status)
	assert.Equal(t, "disk full", job.Error)
}

func TestJob_CloneIsDeep(t *testing.T) {
	job := New(testFiles())
	c := job.Clone()
	c.Files[0].Filename = "changed.pdf"
	c.Record(Result{OriginalName: "x"})

	assert.Equal(t, "a.pdf", job.Files[0].Filename)
	assert.Empty(t, job.Results)
}

func storeCases(t *testing.T) map[string]Store {
	t.Helper()
	mem, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	file, err := NewSQLiteStore(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)

	stores := map[string]Store{
		"memory":        NewMemoryStore(),
		"sqlite memory": mem,
		"sqlite file":   file,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestStores(t *testing.T) {
	for name, store := range storeCases(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			job := New(testFiles())
			require.NoError(t, store.Create(ctx, job))
			assert.Error(t, store.Create(ctx, job), "duplicate create")

			got, err := store.Get(ctx, job.ID)
			require.NoError(t, err)
			assert.Equal(t, job.ID, got.ID)
			assert.Equal(t, StatusPending, got.Status)
			assert.Equal(t, testFiles(), got.Files)

			got.Start()
			got.Begin(2, "b.pdf")
			got.Record(Result{OriginalName: "a.pdf", WordFile: job.ID + "_a.docx", DisplayName: "a.docx", Status: StatusCompleted})
			require.NoError(t, store.Update(ctx, got))

			again, err := store.Get(ctx, job.ID)
			require.NoError(t, err)
			assert.Equal(t, StatusProcessing, again.Status)
			assert.Equal(t, 2, again.CurrentIndex)
			assert.Equal(t, "b.pdf", again.CurrentFile)
			require.Len(t, again.Results, 1)
			assert.Equal(t, "a.docx", again.Results[0].DisplayName)
			assert.Equal(t, 1, again.Processed)
		})
	}
}

func TestStores_NotFound(t *testing.T) {
	for name, store := range storeCases(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := store.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			err = store.Update(ctx, &Job{ID: "missing", Status: StatusFailed})
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	job := New(testFiles())
	require.NoError(t, store.Create(ctx, job))

	got, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	got.Status = StatusFailed

	again, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, again.Status)
}

func TestOpen(t *testing.T) {
	s, err := Open("memory", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open("sqlite", ":memory:")
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	s.Close()

	_, err = Open("redis", "")
	assert.Error(t, err)
}
