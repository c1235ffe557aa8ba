package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/RengaN02/api.ss13.org/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New("sqlite", ":memory:", models.FreshnessWindow)
	require.NoError(t, err)
	return s
}

func createPendingRequest(t *testing.T, s *Store, accessCode string, age time.Duration) int64 {
	t.Helper()
	req := &models.AuthRequest{
		AccessCode:    accessCode,
		RequestStatus: models.RequestStatusPending,
		Timestamp:     time.Now().Add(-age),
	}
	require.NoError(t, s.CreateAuthRequest(req))
	return req.ID
}

// TestStoreWithSQLite tests store operations with SQLite
func TestStoreWithSQLite(t *testing.T) {
	testBasicOperations(t, "sqlite", ":memory:")
}

// TestStoreWithPostgres tests store operations with PostgreSQL
func TestStoreWithPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping PostgreSQL integration test in short mode")
	}

	defer func() {
		if r := recover(); r != nil {
			t.Skipf("Skipping PostgreSQL test: Docker not available (panic: %v)", r)
		}
	}()

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Skipf("Skipping PostgreSQL test: Docker not available (%v)", err)
		return
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	testBasicOperations(t, "postgres", dsn)
}

func testBasicOperations(t *testing.T, driver, dsn string) {
	s, err := New(driver, dsn, models.FreshnessWindow)
	require.NoError(t, err)
	require.NoError(t, s.Health())

	id := createPendingRequest(t, s, "freshcode1", 10*time.Minute)

	found, err := s.FindPendingRequest("freshcode1")
	require.NoError(t, err)
	assert.Equal(t, id, found)

	accountID := "player42"
	err = s.ApproveRequest(id, models.Approval{
		Method:            "provider-x",
		ExternalUID:       "999",
		ExternalUsername:  "alice",
		InternalAccountID: &accountID,
	})
	require.NoError(t, err)

	req, err := s.GetAuthRequest(id)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, req.RequestStatus)
	assert.Equal(t, "provider-x", req.AuthenticationMethod)
	assert.Equal(t, "999", req.ExternalUID)
	assert.Equal(t, "alice", req.ExternalUsername)
	require.NotNil(t, req.InternalAccountID)
	assert.Equal(t, "player42", *req.InternalAccountID)
	assert.False(t, req.IsPending())
	assert.WithinDuration(t, time.Now(), req.Timestamp, time.Minute)

	// Approved requests are no longer reachable by access code.
	_, err = s.FindPendingRequest("freshcode1")
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestFindPendingRequest_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.FindPendingRequest("nosuchcode")
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestFindPendingRequest_ExpiredWindow(t *testing.T) {
	s := setupTestStore(t)

	createPendingRequest(t, s, "oldcode", 3*time.Hour)

	// Older than the freshness window, so the row is invisible to lookup.
	_, err := s.FindPendingRequest("oldcode")
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestFindPendingRequest_FreshInsideWindow(t *testing.T) {
	s := setupTestStore(t)

	id := createPendingRequest(t, s, "recentcode", 10*time.Minute)

	found, err := s.FindPendingRequest("recentcode")
	require.NoError(t, err)
	assert.Equal(t, id, found)
}

func TestFindPendingRequest_DuplicateCodesLatestWins(t *testing.T) {
	s := setupTestStore(t)

	createPendingRequest(t, s, "dupcode", 90*time.Minute)
	newest := createPendingRequest(t, s, "dupcode", 5*time.Minute)

	found, err := s.FindPendingRequest("dupcode")
	require.NoError(t, err)
	assert.Equal(t, newest, found)
}

func TestApproveRequest_AlreadyApproved(t *testing.T) {
	s := setupTestStore(t)

	id := createPendingRequest(t, s, "oncecode", time.Minute)

	approval := models.Approval{
		Method:           "provider-x",
		ExternalUID:      "111",
		ExternalUsername: "bob",
	}
	require.NoError(t, s.ApproveRequest(id, approval))

	err := s.ApproveRequest(id, approval)
	assert.ErrorIs(t, err, ErrRequestAlreadyApproved)
}

func TestApproveRequest_ConcurrentSingleWinner(t *testing.T) {
	s := setupTestStore(t)

	id := createPendingRequest(t, s, "racecode", time.Minute)

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.ApproveRequest(id, models.Approval{
				Method:           "provider-x",
				ExternalUID:      "222",
				ExternalUsername: "carol",
			})
		}()
	}
	wg.Wait()
	close(results)

	winners := 0
	for err := range results {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, ErrRequestAlreadyApproved)
		}
	}
	assert.Equal(t, 1, winners)
}

func TestApproveRequest_WithoutLinkLeavesAccountUntouched(t *testing.T) {
	s := setupTestStore(t)

	id := createPendingRequest(t, s, "nolinkcode", time.Minute)

	err := s.ApproveRequest(id, models.Approval{
		Method:           "provider-x",
		ExternalUID:      "333",
		ExternalUsername: "dave",
	})
	require.NoError(t, err)

	req, err := s.GetAuthRequest(id)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, req.RequestStatus)
	assert.Nil(t, req.InternalAccountID)
}

func TestGetAuthRequest_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetAuthRequest(12345)
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestCountPendingRequests(t *testing.T) {
	s := setupTestStore(t)

	createPendingRequest(t, s, "count1", time.Minute)
	createPendingRequest(t, s, "count2", time.Minute)
	createPendingRequest(t, s, "count3", 3*time.Hour) // outside window

	count, err := s.CountPendingRequests()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestAccountLink(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetAccountLink("777")
	assert.ErrorIs(t, err, ErrNotLinked)

	require.NoError(t, s.CreateAccountLink(&models.AccountLink{
		ExternalUID: "777",
		AccountID:   "player7",
	}))

	link, err := s.GetAccountLink("777")
	require.NoError(t, err)
	assert.Equal(t, "player7", link.AccountID)
}

func TestAuditLogLifecycle(t *testing.T) {
	s := setupTestStore(t)

	logs := []*models.AuditLog{
		{
			ID:        "log-old",
			EventType: models.EventHandshakeFailed,
			CreatedAt: time.Now().Add(-40 * 24 * time.Hour),
		},
		{
			ID:        "log-new",
			EventType: models.EventHandshakeApproved,
			Success:   true,
			CreatedAt: time.Now(),
		},
	}
	require.NoError(t, s.CreateAuditLogs(logs))

	count, err := s.CountAuditLogs()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	deleted, err := s.CleanupOldAuditLogs(30 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	count, err = s.CountAuditLogs()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCreateAuditLogs_EmptyBatch(t *testing.T) {
	s := setupTestStore(t)
	assert.NoError(t, s.CreateAuditLogs(nil))
}
