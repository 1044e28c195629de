// Package audit records security events: authentication outcomes, lockouts,
// CSRF rejections and access denials.
//
// Writes are best-effort. Record never returns an error and never blocks the
// caller on storage; failures are reported on the diagnostic log only.
package audit

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/authgate/internal/entities"
)

const writeTimeout = 5 * time.Second

// Store persists and lists security log entries.
type Store interface {
	Append(ctx context.Context, entry *entities.SecurityLogEntry) error
	List(ctx context.Context, limit int) ([]entities.SecurityLogEntry, error)
}

// Event is a single security-relevant outcome.
type Event struct {
	Tag     string
	Email   string
	UserID  string
	Success bool
	Reason  string
}

// Service provides the security event log.
type Service struct {
	store     Store
	now       func() time.Time
	listLimit int

	wg sync.WaitGroup
	// OnError receives write failures. Defaults to the standard logger.
	OnError func(error)
}

// NewService creates a new security log service.
func NewService(store Store, listLimit int) *Service {
	return &Service{
		store:     store,
		now:       time.Now,
		listLimit: listLimit,
		OnError: func(err error) {
			log.Printf("[AUDIT] failed to record security event: %v", err)
		},
	}
}

// SetClock replaces the time source used for created_at.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Record appends an event in the background. The request source is taken
// from ctx (see RequestSource); ctx cancellation does not abort the write.
func (s *Service) Record(ctx context.Context, ev Event) {
	if s == nil || s.store == nil {
		return
	}

	src := SourceFrom(ctx)
	writeCtx := context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.reportError(fmt.Errorf("panic while writing event %q: %v", ev.Tag, r))
			}
		}()

		entry := &entities.SecurityLogEntry{
			ID:          uuid.NewString(),
			CreatedAt:   s.now().UnixMilli(),
			SourceIP:    src.IP,
			RequestPath: src.Path,
			Event:       ev.Tag,
			Email:       optional(ev.Email),
			UserID:      optional(ev.UserID),
			Success:     ev.Success,
			Reason:      optional(ev.Reason),
		}

		ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
		defer cancel()

		if err := s.store.Append(ctx, entry); err != nil {
			s.reportError(fmt.Errorf("event %q: %w", ev.Tag, err))
		}
	}()
}

// List returns the most recent entries, newest first, capped at the configured limit.
func (s *Service) List(ctx context.Context, limit int) ([]entities.SecurityLogEntry, error) {
	if limit <= 0 || (s.listLimit > 0 && limit > s.listLimit) {
		limit = s.listLimit
	}
	entries, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list security events: %w", err)
	}
	if entries == nil {
		entries = []entities.SecurityLogEntry{}
	}
	return entries, nil
}

// Flush waits for all pending writes to finish or ctx to expire.
func (s *Service) Flush(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		log.Printf("[AUDIT] flush interrupted: %v", ctx.Err())
	}
}

func (s *Service) reportError(err error) {
	if s.OnError != nil {
		s.OnError(err)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
