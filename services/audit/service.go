package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/procureflow/platform/models"
	"github.com/procureflow/platform/repositories"
	"go.uber.org/zap"
)

// Service persists audit entries asynchronously. The auth core treats it as
// fire-and-forget: a full buffer or a failed insert never fails the caller.
type Service struct {
	auditRepo   repositories.AuditRepository
	logger      *zap.Logger
	eventChan   chan *models.AuditLog
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	started     bool
	mu          sync.Mutex
}

// Config holds configuration for the audit Service
type Config struct {
	BufferSize  int
	WorkerCount int
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  10000,
		WorkerCount: 5,
	}
}

// NewService creates a new audit service
func NewService(auditRepo repositories.AuditRepository, logger *zap.Logger, config Config) *Service {
	return &Service{
		auditRepo:   auditRepo,
		logger:      logger,
		eventChan:   make(chan *models.AuditLog, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
	}
}

// Start starts the background workers
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("audit service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started audit service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop gracefully stops the audit service, waiting for pending entries
func (s *Service) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("audit service not started")
	}
	s.started = false
	s.mu.Unlock()

	s.logger.Info("stopping audit service", zap.Int("pending_events", len(s.eventChan)))

	close(s.eventChan)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("audit service stopped gracefully")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("audit service stop timeout after %v", timeout)
	}
}

// Emit queues an audit entry without blocking. When the buffer is full the
// entry is dropped with a warning; auth flows never wait on auditing.
func (s *Service) Emit(log *models.AuditLog) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		s.logger.Warn("audit service not started, dropping entry",
			zap.String("action", string(log.Action)))
		return
	}
	s.mu.Unlock()

	select {
	case s.eventChan <- log:
	default:
		s.logger.Warn("audit buffer full, dropping entry",
			zap.String("action", string(log.Action)),
			zap.String("tenant_id", log.TenantID.String()))
	}
}

// worker drains entries from the channel
func (s *Service) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("audit worker started", zap.Int("worker_id", id))

	for log := range s.eventChan {
		if err := s.process(log); err != nil {
			s.logger.Error("failed to persist audit entry",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("action", string(log.Action)),
				zap.String("tenant_id", log.TenantID.String()))
		}
	}

	s.logger.Debug("audit worker stopped", zap.Int("worker_id", id))
}

func (s *Service) process(log *models.AuditLog) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.auditRepo.Insert(ctx, log)
}
