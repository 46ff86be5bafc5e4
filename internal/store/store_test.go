package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"aipm/internal/analysis"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleReport() analysis.Report {
	return analysis.Report{
		"Abstract Length": {RuleName: "Abstract Length", Decision: true, Justification: "182 words."},
		"DOI Required":    {RuleName: "DOI Required", Decision: false, Justification: "Reference 2 lacks a DOI."},
		"Figure Captions": {RuleName: "Figure Captions", Decision: true, Justification: "OK"},
	}
}

func TestSaveAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created := time.Date(2026, 3, 1, 12, 30, 0, 123456789, time.UTC)
	id, err := s.Save(ctx, Run{
		Document:        "paper.docx",
		Catalog:         "pediatric-journal",
		Model:           "openai/gpt-4o-mini",
		ParallelThreads: 8,
		Duration:        1500 * time.Millisecond,
		CreatedAt:       created,
		Report:          sampleReport(),
	})
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err, "generated IDs are UUIDs")

	run, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, run.ID)
	assert.Equal(t, "paper.docx", run.Document)
	assert.Equal(t, "pediatric-journal", run.Catalog)
	assert.Equal(t, "openai/gpt-4o-mini", run.Model)
	assert.Equal(t, 8, run.ParallelThreads)
	assert.Equal(t, 1500*time.Millisecond, run.Duration)
	assert.True(t, created.Equal(run.CreatedAt), "created_at round-trips: %v", run.CreatedAt)
	assert.Equal(t, sampleReport(), run.Report)
}

func TestSave_KeepsExplicitID(t *testing.T) {
	s := openTestStore(t)
	id, err := s.Save(context.Background(), Run{ID: "fixed-id", Document: "a.txt", Report: analysis.Report{}})
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", id)

	_, err = s.Save(context.Background(), Run{ID: "fixed-id", Document: "a.txt", Report: analysis.Report{}})
	assert.Error(t, err, "IDs are unique")
}

func TestList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, doc := range []string{"first.docx", "second.docx", "third.docx"} {
		_, err := s.Save(ctx, Run{Document: doc, CreatedAt: base.Add(time.Duration(i) * time.Hour), Report: sampleReport()})
		require.NoError(t, err)
	}

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third.docx", all[0].Document)
	assert.Equal(t, "first.docx", all[2].Document)
	assert.Equal(t, 2, all[0].Passed)
	assert.Equal(t, 3, all[0].Total)

	limited, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "second.docx", limited[1].Document)
}

func TestGet_Prefix(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"abcd1111", "abcd2222", "ffff0000"} {
		_, err := s.Save(ctx, Run{ID: id, Document: id, Report: sampleReport()})
		require.NoError(t, err)
	}

	run, err := s.Get(ctx, "ffff")
	require.NoError(t, err)
	assert.Equal(t, "ffff0000", run.ID)

	_, err = s.Get(ctx, "abcd")
	assert.ErrorIs(t, err, ErrAmbiguousID)

	_, err = s.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrRunNotFound, "prefixes shorter than four characters are not expanded")

	_, err = s.Get(ctx, "0000-missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, Run{Document: "x.docx", Report: sampleReport()})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrRunNotFound)

	assert.ErrorIs(t, s.Delete(ctx, id), ErrRunNotFound)
}

func TestDelete_Prefix(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, Run{ID: "abcdef12-run", Document: "x.docx", Report: sampleReport()})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "abcdef"))
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path)
	require.NoError(t, err)
	id, err := s.Save(context.Background(), Run{Document: "keep.docx", Report: sampleReport()})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, path, s.Path())

	run, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "keep.docx", run.Document)
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Ping(context.Background()))
}
