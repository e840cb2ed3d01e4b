package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// WorkFunc is a unit of work run inside a transaction. It returns the URI of
// the resource it produced, as minted inside tx.
type WorkFunc func(ctx context.Context, tx string) (string, error)

// Scope runs units of work inside a repository transaction.
//
// When the caller supplies no transaction the scope opens one, owns it, and
// closes it exactly once: commit on success, rollback otherwise. A supplied
// transaction is only participated in; closing it stays with the caller.
type Scope struct {
	client RepositoryClient
	logger *slog.Logger

	opened     atomic.Int64
	committed  atomic.Int64
	rolledBack atomic.Int64
	failed     atomic.Int64
}

// ScopeStats counts transactions handled by a Scope.
type ScopeStats struct {
	Opened     int64 `json:"opened"`
	Committed  int64 `json:"committed"`
	RolledBack int64 `json:"rolled_back"`
	Failed     int64 `json:"failed"`
}

// NewScope creates a Scope over client.
func NewScope(client RepositoryClient, logger *slog.Logger) *Scope {
	if logger == nil {
		logger = discardLogger()
	}
	return &Scope{client: client, logger: logger}
}

// lease is a handle on a transaction. Only an owned lease can be closed.
type lease struct {
	token  string
	owned  bool
	closed bool
}

func (s *Scope) acquire(ctx context.Context, supplied string) (*lease, error) {
	if supplied != "" {
		return &lease{token: supplied}, nil
	}
	token, err := s.client.CreateTransaction(ctx)
	if err != nil {
		return nil, err
	}
	s.opened.Add(1)
	return &lease{token: token, owned: true}, nil
}

func (s *Scope) commit(ctx context.Context, l *lease) error {
	if !l.owned {
		return ErrTransactionOwnership
	}
	if l.closed {
		return fmt.Errorf("transaction %s already closed", l.token)
	}
	l.closed = true
	if err := s.client.CommitTransaction(ctx, l.token); err != nil {
		return err
	}
	s.committed.Add(1)
	return nil
}

func (s *Scope) rollback(ctx context.Context, l *lease) error {
	if !l.owned {
		return ErrTransactionOwnership
	}
	if l.closed {
		return fmt.Errorf("transaction %s already closed", l.token)
	}
	l.closed = true
	if err := s.client.RollbackTransaction(ctx, l.token); err != nil {
		return err
	}
	s.rolledBack.Add(1)
	return nil
}

// Run executes work for the operation named op.
//
// With an owned transaction, success returns the URI stripped of its
// transaction segment. Failures are logged with their cause and reported as
// ErrCompositionFailed, except ErrContainerNotFound which is returned as is
// after the rollback. With a supplied transaction the raw URI is returned and
// errors propagate unchanged (wrapped with op).
func (s *Scope) Run(ctx context.Context, op string, supplied string, work WorkFunc) (string, error) {
	l, err := s.acquire(ctx, supplied)
	if err != nil {
		s.failed.Add(1)
		s.logger.Error("failed to open transaction", "op", op, "error", err)
		return "", fmt.Errorf("%s: %w", op, ErrCompositionFailed)
	}

	if !l.owned {
		uri, err := work(ctx, l.token)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		return uri, nil
	}

	s.logger.Debug("transaction opened", "op", op, "tx", l.token)

	// Every exit path, including a panic inside work, closes the lease.
	defer func() {
		if !l.closed {
			s.release(ctx, op, l)
		}
	}()

	uri, err := work(ctx, l.token)
	if err != nil {
		s.release(ctx, op, l)
		if errors.Is(err, ErrContainerNotFound) {
			return "", fmt.Errorf("%s: %w", op, ErrContainerNotFound)
		}
		s.failed.Add(1)
		s.logger.Error("composition rolled back", "op", op, "tx", l.token, "error", err)
		return "", fmt.Errorf("%s: %w", op, ErrCompositionFailed)
	}

	// A failed commit already closed the transaction on the server side;
	// rolling back as well would close it twice.
	if err := s.commit(ctx, l); err != nil {
		s.failed.Add(1)
		s.logger.Error("commit failed", "op", op, "tx", l.token, "error", err)
		return "", fmt.Errorf("%s: %w", op, ErrCompositionFailed)
	}

	s.logger.Debug("transaction committed", "op", op, "tx", l.token, "uri", uri)
	return StripTransaction(uri), nil
}

// release rolls back an owned lease. The rollback outlives a cancelled ctx.
func (s *Scope) release(ctx context.Context, op string, l *lease) {
	if err := s.rollback(context.WithoutCancel(ctx), l); err != nil {
		s.logger.Error("rollback failed", "op", op, "tx", l.token, "error", err)
		return
	}
	s.logger.Debug("transaction rolled back", "op", op, "tx", l.token)
}

// Stats returns a snapshot of the transaction counters.
func (s *Scope) Stats() ScopeStats {
	return ScopeStats{
		Opened:     s.opened.Load(),
		Committed:  s.committed.Load(),
		RolledBack: s.rolledBack.Load(),
		Failed:     s.failed.Load(),
	}
}
