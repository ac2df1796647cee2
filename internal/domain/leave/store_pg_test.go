package leave

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leavedesk/internal/domain/auth"
)

// Integration tests run against a real database only when TEST_DATABASE_URL
// is set; the schema must already be migrated.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}
	pool, err := pgxpool.New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func testRequest(requesterID string, start, end time.Time) Request {
	now := time.Now().UTC()
	return Request{
		ID:            uuid.NewString(),
		RequesterID:   requesterID,
		RequesterRole: auth.RoleEmployee,
		Category:      Category{Domain: DomainSelfService, Code: CodePlanned},
		StartDate:     start,
		EndDate:       end,
		Reason:        "integration test",
		Status:        StatusPending,
		TotalDays:     DaysInclusive(start, end),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestPGStoreLifecycle(t *testing.T) {
	pool := testPool(t)
	store := NewPGStore(pool)
	ctx := context.Background()

	requester := "it-" + uuid.NewString()
	req := testRequest(requester, date(2030, 1, 6), date(2030, 1, 8))
	require.NoError(t, store.Insert(ctx, req))
	t.Cleanup(func() { _ = store.Delete(context.Background(), req.ID) })

	got, err := store.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.RequesterID, got.RequesterID)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, 3, got.TotalDays)

	open, err := store.OpenRequests(ctx, requester)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	require.NoError(t, store.SetStatus(ctx, req.ID, StatusApproved, time.Now().UTC()))
	got, err = store.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, got.Status)

	require.NoError(t, store.Delete(ctx, req.ID))
	_, err = store.Get(ctx, req.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPGStoreExclusionConstraint(t *testing.T) {
	pool := testPool(t)
	store := NewPGStore(pool)
	ctx := context.Background()

	requester := "it-" + uuid.NewString()
	first := testRequest(requester, date(2030, 2, 3), date(2030, 2, 7))
	require.NoError(t, store.Insert(ctx, first))
	t.Cleanup(func() { _ = store.Delete(context.Background(), first.ID) })

	// Overlapping range for the same requester trips the constraint and
	// surfaces as a date conflict without any engine involvement.
	overlapping := testRequest(requester, date(2030, 2, 6), date(2030, 2, 9))
	err := store.Insert(ctx, overlapping)
	assert.ErrorIs(t, err, ErrDateConflict)

	// A different requester is free to use the same dates.
	other := testRequest("it-"+uuid.NewString(), date(2030, 2, 3), date(2030, 2, 7))
	require.NoError(t, store.Insert(ctx, other))
	t.Cleanup(func() { _ = store.Delete(context.Background(), other.ID) })

	// A rejected row stops consuming the range.
	require.NoError(t, store.SetStatus(ctx, first.ID, StatusRejected, time.Now().UTC()))
	retry := testRequest(requester, date(2030, 2, 6), date(2030, 2, 9))
	require.NoError(t, store.Insert(ctx, retry))
	t.Cleanup(func() { _ = store.Delete(context.Background(), retry.ID) })
}
