package session

import (
	"go.uber.org/zap"

	plog "github.com/doridoridoriand/pingtray/internal/log"
	"github.com/doridoridoriand/pingtray/internal/targets"
)

// Store is the persisted target list.
type Store interface {
	Load() ([]targets.Target, error)
	Add(address, label string) (targets.Target, error)
	Remove(address string) (bool, error)
}

// Waker requests an immediate probe cycle without waiting for it.
type Waker interface {
	ProbeNow()
}

// Session applies user edits to the target list and asks for a fresh cycle
// after every change that took effect.
type Session struct {
	store  Store
	waker  Waker
	logger *zap.Logger
}

// New returns a Session. waker may be nil when no monitor is running.
func New(store Store, waker Waker, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{store: store, waker: waker, logger: logger}
}

// AddTarget persists a new target and requests a probe.
func (s *Session) AddTarget(address, label string) (targets.Target, error) {
	tgt, err := s.store.Add(address, label)
	if err != nil {
		s.logger.Warn("target_add_rejected", zap.String("address", address), zap.Error(err))
		return targets.Target{}, err
	}
	s.logger.Info("target_added", plog.Target(tgt))
	s.probeNow()
	return tgt, nil
}

// RemoveTarget deletes a target and requests a probe when something was removed.
func (s *Session) RemoveTarget(address string) (bool, error) {
	removed, err := s.store.Remove(address)
	if err != nil {
		s.logger.Warn("target_remove_failed", zap.String("address", address), zap.Error(err))
		return false, err
	}
	if !removed {
		return false, nil
	}
	s.logger.Info("target_removed", zap.String("address", targets.NormalizeAddress(address)))
	s.probeNow()
	return true, nil
}

// ListTargets returns the persisted list in store order.
func (s *Session) ListTargets() ([]targets.Target, error) {
	return s.store.Load()
}

func (s *Session) probeNow() {
	if s.waker != nil {
		s.waker.ProbeNow()
	}
}
