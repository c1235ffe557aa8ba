package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/RengaN02/api.ss13.org/internal/models"
	"github.com/RengaN02/api.ss13.org/internal/store"

	"github.com/google/uuid"
)

// AuditEntry is the data recorded for one handshake attempt.
type AuditEntry struct {
	EventType   string
	AccessCode  string
	Method      string
	ExternalUID string
	ActorIP     string
	Success     bool
	Reason      string
}

// AuditService writes handshake audit entries asynchronously: entries are
// buffered on a channel, batched, and flushed every second or when the batch
// fills up. Shutdown flushes whatever remains.
type AuditService struct {
	store   *store.Store
	enabled bool

	logChan chan *models.AuditLog

	batchBuffer []*models.AuditLog
	batchMutex  sync.Mutex
	batchTicker *time.Ticker

	wg         sync.WaitGroup
	shutdownCh chan struct{}
}

const auditBatchSize = 100

// NewAuditService creates the audit service and starts its worker when
// enabled.
func NewAuditService(s *store.Store, enabled bool, bufferSize int) *AuditService {
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	service := &AuditService{
		store:       s,
		enabled:     enabled,
		logChan:     make(chan *models.AuditLog, bufferSize),
		batchBuffer: make([]*models.AuditLog, 0, auditBatchSize),
		batchTicker: time.NewTicker(1 * time.Second),
		shutdownCh:  make(chan struct{}),
	}

	if enabled {
		service.wg.Add(1)
		go service.worker()
		log.Printf("Audit service started with buffer size %d", bufferSize)
	} else {
		log.Println("Audit service is disabled")
	}

	return service
}

// Record queues an audit entry. Never blocks: if the buffer is full the entry
// is dropped with a log line rather than stalling a handshake.
func (s *AuditService) Record(entry AuditEntry) {
	if !s.enabled {
		return
	}

	auditLog := &models.AuditLog{
		ID:          uuid.New().String(),
		EventType:   entry.EventType,
		AccessCode:  entry.AccessCode,
		Method:      entry.Method,
		ExternalUID: entry.ExternalUID,
		ActorIP:     entry.ActorIP,
		Success:     entry.Success,
		Reason:      entry.Reason,
		CreatedAt:   time.Now(),
	}

	select {
	case s.logChan <- auditLog:
	default:
		log.Printf("[Audit] Buffer full, dropping %s entry", entry.EventType)
	}
}

func (s *AuditService) worker() {
	defer s.wg.Done()

	for {
		select {
		case entry := <-s.logChan:
			s.addToBatch(entry)

		case <-s.batchTicker.C:
			s.flushBatch()

		case <-s.shutdownCh:
			s.drainChannel()
			s.flushBatch()
			return
		}
	}
}

func (s *AuditService) addToBatch(entry *models.AuditLog) {
	s.batchMutex.Lock()
	defer s.batchMutex.Unlock()

	s.batchBuffer = append(s.batchBuffer, entry)
	if len(s.batchBuffer) >= auditBatchSize {
		s.flushBatchUnsafe()
	}
}

func (s *AuditService) flushBatch() {
	s.batchMutex.Lock()
	defer s.batchMutex.Unlock()
	s.flushBatchUnsafe()
}

// flushBatchUnsafe writes the batch to the store. Caller must hold batchMutex.
func (s *AuditService) flushBatchUnsafe() {
	if len(s.batchBuffer) == 0 {
		return
	}

	if err := s.store.CreateAuditLogs(s.batchBuffer); err != nil {
		log.Printf("[Audit] Failed to flush %d entries: %v", len(s.batchBuffer), err)
	}
	s.batchBuffer = s.batchBuffer[:0]
}

// drainChannel moves any queued entries into the batch before final flush.
func (s *AuditService) drainChannel() {
	for {
		select {
		case entry := <-s.logChan:
			s.addToBatch(entry)
		default:
			return
		}
	}
}

// Shutdown stops the worker and flushes remaining entries.
func (s *AuditService) Shutdown(ctx context.Context) error {
	if !s.enabled {
		return nil
	}

	close(s.shutdownCh)
	s.batchTicker.Stop()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CleanupOldLogs removes audit entries older than the retention period.
func (s *AuditService) CleanupOldLogs(retention time.Duration) (int64, error) {
	return s.store.CleanupOldAuditLogs(retention)
}
