package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/landoracle/internal/models"
)

func newTestStorage(t *testing.T, maxEstimates int) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "history", "estimates.db"), maxEstimates)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testEstimate(id string, createdAt time.Time) *models.Estimate {
	perCent := 120000.0
	return &models.Estimate{
		ID:           id,
		District:     "kollam",
		Locality:     "karunagappally",
		TotalPrice:   600000,
		PricePerCent: &perCent,
		AvgCents:     5,
		LogCatBoost:  13.5,
		LogLightGBM:  13.25,
		LogMeta:      13.375,
		CreatedAt:    createdAt,
	}
}

func TestStorage_AddAndGetEstimate(t *testing.T) {
	s := newTestStorage(t, 100)
	ctx := context.Background()

	created := time.Now().Add(-time.Minute)
	require.NoError(t, s.AddEstimate(ctx, testEstimate("est-1", created)))

	got, err := s.GetEstimate(ctx, "est-1")
	require.NoError(t, err)
	require.Equal(t, "kollam", got.District)
	require.Equal(t, "karunagappally", got.Locality)
	require.Equal(t, 13.375, got.LogMeta)
	require.NotNil(t, got.PricePerCent)
	require.Equal(t, 120000.0, *got.PricePerCent)
	require.True(t, created.Equal(got.CreatedAt), "created_at %v != %v", got.CreatedAt, created)
}

func TestStorage_NullPricePerCent(t *testing.T) {
	s := newTestStorage(t, 100)
	ctx := context.Background()

	e := testEstimate("zero-cents", time.Now())
	e.PricePerCent = nil
	e.AvgCents = 0
	require.NoError(t, s.AddEstimate(ctx, e))

	got, err := s.GetEstimate(ctx, "zero-cents")
	require.NoError(t, err)
	require.Nil(t, got.PricePerCent)
}

func TestStorage_GetEstimateNotFound(t *testing.T) {
	s := newTestStorage(t, 100)

	_, err := s.GetEstimate(context.Background(), "missing")
	require.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)
}

func TestStorage_AddEstimateValidation(t *testing.T) {
	s := newTestStorage(t, 100)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*models.Estimate)
	}{
		{"empty id", func(e *models.Estimate) { e.ID = "" }},
		{"empty district", func(e *models.Estimate) { e.District = "" }},
		{"negative cents", func(e *models.Estimate) { e.AvgCents = -1 }},
		{"zero time", func(e *models.Estimate) { e.CreatedAt = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testEstimate("bad", time.Now())
			tt.mutate(e)
			require.Error(t, s.AddEstimate(ctx, e))
		})
	}

	n, err := s.CountEstimates(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestStorage_DuplicateID(t *testing.T) {
	s := newTestStorage(t, 100)
	ctx := context.Background()

	require.NoError(t, s.AddEstimate(ctx, testEstimate("dup", time.Now())))
	require.Error(t, s.AddEstimate(ctx, testEstimate("dup", time.Now())))
}

func TestStorage_RecentEstimates(t *testing.T) {
	s := newTestStorage(t, 100)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("est-%d", i)
		require.NoError(t, s.AddEstimate(ctx, testEstimate(id, base.Add(time.Duration(i)*time.Minute))))
	}

	recent, err := s.RecentEstimates(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	require.Equal(t, "est-4", recent[0].ID)
	require.Equal(t, "est-3", recent[1].ID)
	require.Equal(t, "est-2", recent[2].ID)

	none, err := s.RecentEstimates(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, none)
	require.Empty(t, none)
}

func TestStorage_RotateEstimates(t *testing.T) {
	s := newTestStorage(t, 3)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 6; i++ {
		id := fmt.Sprintf("est-%d", i)
		require.NoError(t, s.AddEstimate(ctx, testEstimate(id, base.Add(time.Duration(i)*time.Minute))))
	}

	require.NoError(t, s.RotateEstimates(ctx))

	n, err := s.CountEstimates(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	_, err = s.GetEstimate(ctx, "est-2")
	require.ErrorIs(t, err, ErrNotFound)
	for _, id := range []string{"est-3", "est-4", "est-5"} {
		_, err := s.GetEstimate(ctx, id)
		require.NoError(t, err, "newest estimate %s was rotated out", id)
	}
}

func TestStorage_RotateBelowLimit(t *testing.T) {
	s := newTestStorage(t, 10)
	ctx := context.Background()

	require.NoError(t, s.AddEstimate(ctx, testEstimate("only", time.Now())))
	require.NoError(t, s.RotateEstimates(ctx))

	n, err := s.CountEstimates(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestStorage_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estimates.db")
	ctx := context.Background()

	s, err := New(path, 10)
	require.NoError(t, err)
	require.NoError(t, s.AddEstimate(ctx, testEstimate("kept", time.Now())))
	require.NoError(t, s.Close())

	s, err = New(path, 10)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetEstimate(ctx, "kept")
	require.NoError(t, err)
	require.Equal(t, "kept", got.ID)
}
