// Package maintenance runs the periodic bulk pass over subscriptions and the
// token revocation set.
package maintenance

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexkey/nexkey-admin-backend/internal/database/repository"
	"github.com/nexkey/nexkey-admin-backend/internal/models"
	"github.com/nexkey/nexkey-admin-backend/internal/services"
	"github.com/nexkey/nexkey-admin-backend/internal/services/subscription"
)

// SweepResult reports what a maintenance sweep did
type SweepResult struct {
	ExpiredCount      int `json:"expired_count"`
	AutoRenewedCount  int `json:"auto_renewed_count"`
	CleanedTokenCount int `json:"cleaned_token_count"`
}

// SweepService expires overdue subscriptions, auto-renews eligible ones, and
// prunes stale revocation entries. Safe to run concurrently with live
// traffic: every transition re-checks its guard and is idempotent.
type SweepService struct {
	lifecycle       *subscription.Service
	revokedRepo     *repository.RevokedTokenRepository
	audit           *services.AuditService
	autoRenewWindow time.Duration
	interval        time.Duration
	stopChan        chan struct{}
}

// NewSweepService creates a new SweepService
func NewSweepService(lifecycle *subscription.Service, revokedRepo *repository.RevokedTokenRepository, audit *services.AuditService, autoRenewWindow, interval time.Duration) *SweepService {
	if autoRenewWindow <= 0 {
		autoRenewWindow = 24 * time.Hour
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &SweepService{
		lifecycle:       lifecycle,
		revokedRepo:     revokedRepo,
		audit:           audit,
		autoRenewWindow: autoRenewWindow,
		interval:        interval,
		stopChan:        make(chan struct{}),
	}
}

// Run performs one full sweep at the given instant
func (s *SweepService) Run(now time.Time) (*SweepResult, error) {
	result := &SweepResult{}

	expired, err := s.lifecycle.ExpireOverdue(now)
	if err != nil {
		return nil, err
	}
	result.ExpiredCount = expired

	renewed, err := s.lifecycle.AutoRenewSweep(now, s.autoRenewWindow)
	if err != nil {
		return nil, err
	}
	result.AutoRenewedCount = renewed

	cleaned, err := s.revokedRepo.DeleteExpired(now)
	if err != nil {
		return nil, err
	}
	result.CleanedTokenCount = int(cleaned)

	s.audit.Record("", models.AuditActionMaintenanceSweep,
		fmt.Sprintf("expired=%d auto_renewed=%d cleaned_tokens=%d",
			result.ExpiredCount, result.AutoRenewedCount, result.CleanedTokenCount))

	return result, nil
}

// Start launches the periodic sweep loop
func (s *SweepService) Start() {
	go s.run()
	logrus.Info("Maintenance sweep service started")
}

// Stop stops the periodic sweep loop
func (s *SweepService) Stop() {
	close(s.stopChan)
	logrus.Info("Maintenance sweep service stopped")
}

func (s *SweepService) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run initial sweep
	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopChan:
			return
		}
	}
}

func (s *SweepService) sweep() {
	logrus.Info("Starting maintenance sweep...")

	result, err := s.Run(time.Now())
	if err != nil {
		logrus.Errorf("Maintenance sweep failed: %v", err)
		return
	}

	logrus.Infof("Maintenance sweep completed: expired=%d auto_renewed=%d cleaned_tokens=%d",
		result.ExpiredCount, result.AutoRenewedCount, result.CleanedTokenCount)
}
