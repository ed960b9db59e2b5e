package statistics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/EventSite/app/models"
)

type fakeCounter struct {
	counts map[string]int64
	calls  int
	err    error
}

func (f *fakeCounter) Count(_ context.Context, status string) (int64, error) {
	f.calls++
	return f.counts[status], f.err
}

func TestQuoteStatsWithoutCache(t *testing.T) {
	counter := &fakeCounter{counts: map[string]int64{
		models.QuoteStatusNew:       3,
		models.QuoteStatusContacted: 1,
		models.QuoteStatusWon:       2,
	}}
	svc := NewService(counter, nil)
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	stats, err := svc.QuoteStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(6), stats.Total)
	assert.Equal(t, int64(3), stats.ByStatus[models.QuoteStatusNew])
	assert.Equal(t, int64(0), stats.ByStatus[models.QuoteStatusArchived])
	assert.Len(t, stats.ByStatus, len(models.QuoteStatuses()))
	assert.Equal(t, fixed, stats.UpdatedAt)

	svc.Invalidate(context.Background())
}

func TestQuoteStatsPropagatesErrors(t *testing.T) {
	boom := errors.New("db gone")
	svc := NewService(&fakeCounter{err: boom}, nil)

	_, err := svc.QuoteStats(context.Background())
	assert.ErrorIs(t, err, boom)
}
