// Package subscription implements the subscription lifecycle engine: the
// single source of truth for whether an API key is allowed to operate, and
// the transitions that change stored subscription state.
package subscription

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/nexkey/nexkey-admin-backend/internal/apperrors"
	"github.com/nexkey/nexkey-admin-backend/internal/database/repository"
	"github.com/nexkey/nexkey-admin-backend/internal/models"
	"github.com/nexkey/nexkey-admin-backend/internal/services"
	"github.com/nexkey/nexkey-admin-backend/internal/utils"
)

// State is the evaluated lifecycle state of a subscription at an instant
type State string

const (
	StateNoSubscription State = "no_subscription"
	StateActive         State = "active"
	StateExpiring       State = "expiring"
	StateExpired        State = "expired"
	StateCancelled      State = "cancelled"
)

// Valid reports whether a key in this state is allowed to operate
func (s State) Valid() bool {
	return s != StateExpired
}

// DefaultExpiringThresholdDays is the advisory window before end date during
// which an active subscription reports StateExpiring
const DefaultExpiringThresholdDays = 7

// Evaluate computes the lifecycle state of a subscription at the given
// instant. It is a pure function: no storage access, no mutation. A
// subscription expiring at exactly now is still valid for that instant.
func Evaluate(sub *models.Subscription, now time.Time, expiringDays int) State {
	if sub == nil || !sub.Enabled {
		return StateNoSubscription
	}
	if now.After(sub.EndDate) {
		return StateExpired
	}
	switch sub.Status {
	case models.SubscriptionStatusCancelled:
		// Cancellation disables auto-renew but keeps the remaining paid time
		return StateCancelled
	case models.SubscriptionStatusExpired:
		return StateExpired
	default:
		if expiringDays > 0 && !now.Before(sub.EndDate.AddDate(0, 0, -expiringDays)) {
			return StateExpiring
		}
		return StateActive
	}
}

// ActivateRequest carries the parameters of a subscription activation
type ActivateRequest struct {
	Price        float64 `json:"price"`
	DurationDays int     `json:"duration_days" binding:"required,min=1"`
	AutoRenew    bool    `json:"auto_renew"`
	Currency     string  `json:"currency"`
}

// RenewRequest carries the parameters of a subscription renewal
type RenewRequest struct {
	DurationDays int     `json:"duration_days" binding:"required,min=1"`
	Amount       float64 `json:"amount"`
	Reference    string  `json:"reference"`
}

// Service drives subscription lifecycle transitions. Every mutating
// transition locks the owning key so read-modify-write on one subscription
// cannot interleave with a concurrent request or the maintenance sweep.
type Service struct {
	subRepo      *repository.SubscriptionRepository
	apiKeyRepo   *repository.APIKeyRepository
	paymentRepo  *repository.PaymentRepository
	audit        *services.AuditService
	locks        *utils.KeyedMutex
	expiringDays int
	defaultDays  int
}

// NewService creates a new lifecycle service
func NewService(db *gorm.DB, audit *services.AuditService, expiringDays, defaultRenewDays int) *Service {
	if expiringDays <= 0 {
		expiringDays = DefaultExpiringThresholdDays
	}
	if defaultRenewDays <= 0 {
		defaultRenewDays = 30
	}
	return &Service{
		subRepo:      repository.NewSubscriptionRepository(db),
		apiKeyRepo:   repository.NewAPIKeyRepository(db),
		paymentRepo:  repository.NewPaymentRepository(db),
		audit:        audit,
		locks:        utils.NewKeyedMutex(),
		expiringDays: expiringDays,
		defaultDays:  defaultRenewDays,
	}
}

// Get returns the subscription attached to a key, or SubscriptionNotFound
func (s *Service) Get(apiKeyUID string) (*models.Subscription, error) {
	sub, err := s.subRepo.GetByAPIKeyUID(apiKeyUID)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	if sub == nil {
		return nil, apperrors.New(apperrors.ErrorTypeSubscriptionNotFound, "no subscription for this key")
	}
	return sub, nil
}

// Activate creates (or reuses) the subscription record of a key. It fails
// with SubscriptionAlreadyActive when an enabled, still-active subscription
// exists; expired or cancelled records restart with a fresh period.
func (s *Service) Activate(apiKeyUID string, req ActivateRequest) (*models.Subscription, error) {
	if req.DurationDays <= 0 {
		return nil, apperrors.New(apperrors.ErrorTypeInvalidRequest, "duration_days must be positive")
	}

	s.locks.Lock(apiKeyUID)
	defer s.locks.Unlock(apiKeyUID)

	apiKey, err := s.apiKeyRepo.GetByUID(apiKeyUID)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	if apiKey == nil {
		return nil, apperrors.New(apperrors.ErrorTypeNotFound, "API key not found")
	}

	now := time.Now()

	sub, err := s.subRepo.GetByAPIKeyUID(apiKeyUID)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	if sub != nil {
		// Reconcile an overdue record first so a lapsed subscription can be
		// re-activated instead of blocking on stale "active" status
		if _, err := s.CheckAndExpire(sub, now); err != nil {
			return nil, err
		}
		if sub.Enabled && sub.Status == models.SubscriptionStatusActive {
			return nil, apperrors.New(apperrors.ErrorTypeAlreadyActive, "subscription is already active")
		}
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	endDate := now.AddDate(0, 0, req.DurationDays)
	if sub == nil {
		sub = &models.Subscription{APIKeyUID: apiKeyUID}
	}
	sub.Enabled = true
	sub.Status = models.SubscriptionStatusActive
	sub.StartDate = now
	sub.EndDate = endDate
	sub.AutoRenew = req.AutoRenew
	sub.RenewalDate = nil
	if req.AutoRenew {
		sub.RenewalDate = &endDate
	}
	sub.Price = req.Price
	sub.Currency = currency
	sub.DurationDays = req.DurationDays

	if err := s.subRepo.Save(sub); err != nil {
		return nil, apperrors.Storage(err)
	}

	// Activation brings a previously disabled key back
	if !apiKey.IsActive {
		if err := s.apiKeyRepo.SetActive(apiKeyUID, true); err != nil {
			return nil, apperrors.Storage(err)
		}
	}

	s.appendPayment(apiKeyUID, req.Price, currency, models.PaymentMethodActivation, "")
	s.audit.Record(apiKeyUID, models.AuditActionSubscriptionActivated,
		fmt.Sprintf("duration_days=%d auto_renew=%t", req.DurationDays, req.AutoRenew))

	return sub, nil
}

// Renew extends the subscription of a key. Unexpired time is preserved: the
// new end date is max(now, endDate) + durationDays. An expired subscription
// restarts the clock from now.
func (s *Service) Renew(apiKeyUID string, req RenewRequest) (*models.Subscription, error) {
	if req.DurationDays <= 0 {
		return nil, apperrors.New(apperrors.ErrorTypeInvalidRequest, "duration_days must be positive")
	}

	s.locks.Lock(apiKeyUID)
	defer s.locks.Unlock(apiKeyUID)

	sub, err := s.subRepo.GetByAPIKeyUID(apiKeyUID)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	if sub == nil {
		return nil, apperrors.New(apperrors.ErrorTypeSubscriptionNotFound, "no subscription to renew")
	}

	now := time.Now()
	base := sub.EndDate
	if now.After(base) {
		base = now
	}
	newEnd := base.AddDate(0, 0, req.DurationDays)

	sub.Status = models.SubscriptionStatusActive
	sub.EndDate = newEnd
	sub.RenewalDate = nil
	if sub.AutoRenew {
		sub.RenewalDate = &newEnd
	}

	if err := s.subRepo.Save(sub); err != nil {
		return nil, apperrors.Storage(err)
	}

	apiKey, err := s.apiKeyRepo.GetByUID(apiKeyUID)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	if apiKey != nil && !apiKey.IsActive {
		if err := s.apiKeyRepo.SetActive(apiKeyUID, true); err != nil {
			return nil, apperrors.Storage(err)
		}
	}

	amount := req.Amount
	if amount == 0 {
		amount = sub.Price
	}
	s.appendPayment(apiKeyUID, amount, sub.Currency, models.PaymentMethodRenewal, req.Reference)
	s.audit.Record(apiKeyUID, models.AuditActionSubscriptionRenewed,
		fmt.Sprintf("duration_days=%d new_end=%s", req.DurationDays, newEnd.Format(time.RFC3339)))

	return sub, nil
}

// Cancel turns off auto-renew and marks the subscription cancelled. The end
// date and the key's active flag are untouched: remaining paid time stays
// usable until it runs out.
func (s *Service) Cancel(apiKeyUID string) (*models.Subscription, error) {
	s.locks.Lock(apiKeyUID)
	defer s.locks.Unlock(apiKeyUID)

	sub, err := s.subRepo.GetByAPIKeyUID(apiKeyUID)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	if sub == nil || !sub.Enabled {
		return nil, apperrors.New(apperrors.ErrorTypeSubscriptionNotFound, "no enabled subscription to cancel")
	}
	if sub.Status == models.SubscriptionStatusCancelled {
		return sub, nil
	}

	sub.AutoRenew = false
	sub.Status = models.SubscriptionStatusCancelled
	sub.RenewalDate = nil

	if err := s.subRepo.Save(sub); err != nil {
		return nil, apperrors.Storage(err)
	}

	s.audit.Record(apiKeyUID, models.AuditActionSubscriptionCancelled,
		fmt.Sprintf("paid_until=%s", sub.EndDate.Format(time.RFC3339)))

	return sub, nil
}

// CheckAndExpire reconciles an overdue subscription: an enabled, active
// record past its end date flips to expired and the owning key is
// deactivated. The caller must hold the key lock; the record is re-fetched
// under it before the guard is tested, so a snapshot taken before a
// concurrent renewal cannot revert the renewed record. Idempotent;
// re-running on an already expired record is a no-op. Returns whether a
// transition happened.
func (s *Service) CheckAndExpire(sub *models.Subscription, now time.Time) (bool, error) {
	if sub == nil || !sub.Enabled || sub.Status != models.SubscriptionStatusActive || !now.After(sub.EndDate) {
		return false, nil
	}

	fresh, err := s.subRepo.GetByAPIKeyUID(sub.APIKeyUID)
	if err != nil {
		return false, apperrors.Storage(err)
	}
	if fresh == nil {
		return false, nil
	}
	*sub = *fresh
	if !sub.Enabled || sub.Status != models.SubscriptionStatusActive || !now.After(sub.EndDate) {
		return false, nil
	}

	sub.Status = models.SubscriptionStatusExpired
	if err := s.subRepo.Update(sub.APIKeyUID, map[string]interface{}{
		"status": models.SubscriptionStatusExpired,
	}); err != nil {
		return false, apperrors.Storage(err)
	}

	if err := s.apiKeyRepo.SetActive(sub.APIKeyUID, false); err != nil {
		return false, apperrors.Storage(err)
	}

	s.audit.Record(sub.APIKeyUID, models.AuditActionSubscriptionExpired,
		fmt.Sprintf("end_date=%s", sub.EndDate.Format(time.RFC3339)))

	return true, nil
}

// Validate reconciles and evaluates the subscription attached to a key and
// returns SubscriptionExpired when the key must not operate. Keys without an
// enabled subscription are unrestricted. Runs under the key lock so the
// inline expiry check cannot interleave with a concurrent renewal.
func (s *Service) Validate(apiKeyUID string, now time.Time) error {
	s.locks.Lock(apiKeyUID)
	defer s.locks.Unlock(apiKeyUID)

	sub, err := s.subRepo.GetByAPIKeyUID(apiKeyUID)
	if err != nil {
		return apperrors.Storage(err)
	}
	if sub == nil {
		return nil
	}

	if _, err := s.CheckAndExpire(sub, now); err != nil {
		return err
	}

	if !Evaluate(sub, now, s.expiringDays).Valid() {
		return apperrors.New(apperrors.ErrorTypeSubscriptionExpired, "subscription has expired")
	}
	return nil
}

// ExpireOverdue applies CheckAndExpire to every overdue subscription and
// returns how many transitioned. Used by the maintenance sweep; safe to run
// concurrently with live traffic because each transition re-checks its guard
// under the key lock.
func (s *Service) ExpireOverdue(now time.Time) (int, error) {
	subs, err := s.subRepo.ListOverdue(now)
	if err != nil {
		return 0, apperrors.Storage(err)
	}

	expired := 0
	for i := range subs {
		sub := &subs[i]
		s.locks.Lock(sub.APIKeyUID)
		transitioned, err := s.CheckAndExpire(sub, now)
		s.locks.Unlock(sub.APIKeyUID)
		if err != nil {
			logrus.Errorf("Failed to expire subscription for key %s: %v", sub.APIKeyUID, err)
			continue
		}
		if transitioned {
			expired++
		}
	}
	return expired, nil
}

// AutoRenewSweep extends every enabled, active, auto-renew subscription whose
// end date falls within the window. The increment is the subscription's own
// activation duration, falling back to the configured default.
func (s *Service) AutoRenewSweep(now time.Time, window time.Duration) (int, error) {
	subs, err := s.subRepo.ListDueForAutoRenew(now, window)
	if err != nil {
		return 0, apperrors.Storage(err)
	}

	renewed := 0
	for i := range subs {
		sub := &subs[i]
		s.locks.Lock(sub.APIKeyUID)
		transitioned, err := s.autoRenewOne(sub, now)
		s.locks.Unlock(sub.APIKeyUID)
		if err != nil {
			logrus.Errorf("Failed to auto-renew subscription for key %s: %v", sub.APIKeyUID, err)
			continue
		}
		if transitioned {
			renewed++
		}
	}
	return renewed, nil
}

func (s *Service) autoRenewOne(sub *models.Subscription, now time.Time) (bool, error) {
	// Re-check the guard under the lock; a concurrent cancel or renew may
	// have changed the record since the sweep listed it
	fresh, err := s.subRepo.GetByAPIKeyUID(sub.APIKeyUID)
	if err != nil {
		return false, apperrors.Storage(err)
	}
	if fresh == nil || !fresh.Enabled || !fresh.AutoRenew ||
		fresh.Status != models.SubscriptionStatusActive || now.After(fresh.EndDate) {
		return false, nil
	}

	days := fresh.DurationDays
	if days <= 0 {
		days = s.defaultDays
	}

	newEnd := fresh.EndDate.AddDate(0, 0, days)
	fresh.EndDate = newEnd
	fresh.RenewalDate = &newEnd

	if err := s.subRepo.Save(fresh); err != nil {
		return false, apperrors.Storage(err)
	}

	s.appendPayment(fresh.APIKeyUID, fresh.Price, fresh.Currency, models.PaymentMethodAutoRenew, "")
	s.audit.Record(fresh.APIKeyUID, models.AuditActionSubscriptionAutoRenew,
		fmt.Sprintf("days=%d new_end=%s", days, newEnd.Format(time.RFC3339)))

	return true, nil
}

// appendPayment records a ledger entry; failures are logged, not raised
func (s *Service) appendPayment(apiKeyUID string, amount float64, currency, method, reference string) {
	payment := &models.Payment{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		APIKeyUID: apiKeyUID,
		Amount:    amount,
		Currency:  currency,
		Method:    method,
		Reference: reference,
	}
	if err := s.paymentRepo.Append(payment); err != nil {
		logrus.Errorf("Failed to record %s payment for key %s: %v", method, apiKeyUID, err)
	}
}
