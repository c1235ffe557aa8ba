package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/RengaN02/api.ss13.org/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store wraps the database handle for authentication requests, account links
// and audit logs.
type Store struct {
	db     *gorm.DB
	window time.Duration // freshness window for pending request lookup
}

// New opens the database, runs migrations and returns a ready store.
// A non-positive window falls back to models.FreshnessWindow.
func New(driver, dsn string, window time.Duration) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// SQLite supports a single writer, and every pooled connection to an
	// in-memory database would get its own copy. Pin the pool to one
	// connection for this driver.
	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(
		&models.AuthRequest{},
		&models.AccountLink{},
		&models.AuditLog{},
	); err != nil {
		return nil, err
	}

	if window <= 0 {
		window = models.FreshnessWindow
	}

	return &Store{db: db, window: window}, nil
}

// Health checks database connectivity.
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// FindPendingRequest returns the id of the most recent pending request with
// the given access code whose timestamp is still within the freshness window.
// Duplicate codes resolve to the newest request; older ones stay unreachable.
func (s *Store) FindPendingRequest(accessCode string) (int64, error) {
	var req models.AuthRequest
	cutoff := time.Now().Add(-s.window)

	err := s.db.
		Where("access_code = ? AND request_status = ? AND timestamp >= ?",
			accessCode, models.RequestStatusPending, cutoff).
		Order("timestamp DESC").
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrRequestNotFound
		}
		return 0, fmt.Errorf("failed to query authentication request: %w", err)
	}

	return req.ID, nil
}

// ApproveRequest transitions a request to approved with a single conditional
// update: the write only applies while the row is still pending, so concurrent
// approvals resolve to exactly one winner. The internal account column is
// written only when the approval carries one; an approval without a known link
// leaves the column untouched.
func (s *Store) ApproveRequest(id int64, approval models.Approval) error {
	updates := map[string]any{
		"request_status":        models.RequestStatusApproved,
		"authentication_method": approval.Method,
		"external_uid":          approval.ExternalUID,
		"external_username":     approval.ExternalUsername,
		"timestamp":             time.Now(),
	}
	if approval.InternalAccountID != nil {
		updates["internal_account_id"] = *approval.InternalAccountID
	}

	res := s.db.Model(&models.AuthRequest{}).
		Where("id = ? AND request_status = ?", id, models.RequestStatusPending).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to approve authentication request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRequestAlreadyApproved
	}

	return nil
}

// GetAuthRequest retrieves a request by id.
func (s *Store) GetAuthRequest(id int64) (*models.AuthRequest, error) {
	var req models.AuthRequest
	if err := s.db.First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

// CreateAuthRequest inserts a pending request. In production rows are created
// by the game server out-of-band; this exists for seeding and tests.
func (s *Store) CreateAuthRequest(req *models.AuthRequest) error {
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}
	return s.db.Create(req).Error
}

// CountPendingRequests returns the number of pending requests still inside
// the freshness window. Used by the metrics gauge update job.
func (s *Store) CountPendingRequests() (int64, error) {
	var count int64
	cutoff := time.Now().Add(-s.window)
	err := s.db.Model(&models.AuthRequest{}).
		Where("request_status = ? AND timestamp >= ?", models.RequestStatusPending, cutoff).
		Count(&count).Error
	return count, err
}

// GetAccountLink looks up the game account mapped to an external identity.
// Returns ErrNotLinked when no mapping exists yet.
func (s *Store) GetAccountLink(externalUID string) (*models.AccountLink, error) {
	var link models.AccountLink
	err := s.db.Where("external_uid = ?", externalUID).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotLinked
		}
		return nil, fmt.Errorf("failed to query account link: %w", err)
	}
	return &link, nil
}

// CreateAccountLink inserts a link row. The mapping is owned by the game-side
// verification flow; this exists for seeding and tests.
func (s *Store) CreateAccountLink(link *models.AccountLink) error {
	return s.db.Create(link).Error
}

// Audit log operations

// CreateAuditLogs inserts a batch of audit entries.
func (s *Store) CreateAuditLogs(logs []*models.AuditLog) error {
	if len(logs) == 0 {
		return nil
	}
	return s.db.Create(logs).Error
}

// CleanupOldAuditLogs deletes audit entries older than the retention period
// and returns the number of rows removed.
func (s *Store) CleanupOldAuditLogs(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	res := s.db.Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	return res.RowsAffected, res.Error
}

// CountAuditLogs returns the number of stored audit entries.
func (s *Store) CountAuditLogs() (int64, error) {
	var count int64
	err := s.db.Model(&models.AuditLog{}).Count(&count).Error
	return count, err
}
