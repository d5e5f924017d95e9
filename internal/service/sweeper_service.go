package service

import (
	"context"
	"fmt"
	"time"

	"tutorium-be/internal/config"
	"tutorium-be/internal/entity"
	"tutorium-be/internal/pkg/clock"
	"tutorium-be/internal/pkg/logger"
	"tutorium-be/internal/repository/memory"
	"tutorium-be/internal/repository/specification"
	"tutorium-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sweeperLockKey = "sweeper:run-lock"
	sweeperLockTTL = 10 * time.Minute
)

type ISweeperService interface {
	// ExpireOverdue flips every pending credit whose deadline has passed
	// to expired. Idempotent; a rerun finds nothing left to expire.
	ExpireOverdue(ctx context.Context) (int, error)
	// EmitExpiryWarnings notifies students whose credits expire within the
	// warning window, at most once per credit per calendar day.
	EmitExpiryWarnings(ctx context.Context) (int, error)
	Start()
	Stop()
}

type sweeperService struct {
	factory  unitofwork.RepositoryFactory
	warnings *memory.WarningCache
	rdb      *redis.Client
	policy   config.PolicyConfig
	clk      clock.Clock
	log      logger.ILogger
	interval time.Duration
	stopChan chan struct{}
}

// NewSweeperService builds the background sweeper. rdb may be nil, in
// which case the run lock is skipped (single-instance deployments).
func NewSweeperService(factory unitofwork.RepositoryFactory, warnings *memory.WarningCache, rdb *redis.Client, policy config.PolicyConfig, clk clock.Clock, log logger.ILogger, interval time.Duration) ISweeperService {
	return &sweeperService{
		factory:  factory,
		warnings: warnings,
		rdb:      rdb,
		policy:   policy,
		clk:      clk,
		log:      log,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (s *sweeperService) ExpireOverdue(ctx context.Context) (int, error) {
	now := s.clk.Now()
	uow := s.factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	overdue, err := uow.MakeupCreditRepository().FindAll(ctx,
		specification.Filter("status", entity.MakeupCreditStatusPending),
		specification.ExpiresBefore{T: now},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to find overdue credits: %w", err)
	}

	for _, credit := range overdue {
		credit.Status = entity.MakeupCreditStatusExpired
		credit.AppendNote(now, "system", "expired", "validity window elapsed without a booking")
		if err := uow.MakeupCreditRepository().Update(ctx, credit); err != nil {
			return 0, fmt.Errorf("failed to expire credit %s: %w", credit.Id, err)
		}

		err = uow.OutboxRepository().Enqueue(ctx, &entity.OutboxMessage{
			Id:       uuid.New(),
			UserId:   credit.StudentId,
			TypeCode: entity.NotifMakeupExpired,
			Title:    "Makeup credit expired",
			Message:  "Your makeup lesson credit expired without being used.",
			Payload: map[string]interface{}{
				"credit_id":  credit.Id.String(),
				"expired_at": credit.ExpiresAt.Format(time.RFC3339),
			},
			Status:    entity.OutboxStatusPending,
			CreatedAt: now,
		})
		if err != nil {
			return 0, fmt.Errorf("failed to enqueue expiry notification: %w", err)
		}
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit expirations: %w", err)
	}

	if len(overdue) > 0 {
		s.log.Info("sweeper", "credits expired", map[string]interface{}{"count": len(overdue)})
	}
	return len(overdue), nil
}

func (s *sweeperService) EmitExpiryWarnings(ctx context.Context) (int, error) {
	now := s.clk.Now()
	window := time.Duration(s.policy.ExpiryWarningWindowDays) * 24 * time.Hour

	uow := s.factory.NewUnitOfWork(ctx)
	expiring, err := uow.MakeupCreditRepository().FindAll(ctx,
		specification.Filter("status", entity.MakeupCreditStatusPending),
		specification.ExpiresBetween{After: now, Until: now.Add(window)},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to find expiring credits: %w", err)
	}

	sent := 0
	for _, credit := range expiring {
		// In-process fast path; the audit log stays the source of truth
		// so a restarted sweeper still dedupes within the day.
		if s.warnings.SeenToday(credit.Id, now) {
			continue
		}
		already, err := uow.AuditLogRepository().Exists(ctx, "makeup_credit", credit.Id, entity.AuditActionExpiryWarning, now)
		if err != nil {
			return sent, fmt.Errorf("failed to check warning dedup: %w", err)
		}
		if already {
			s.warnings.MarkSent(credit.Id, now)
			continue
		}

		if err := s.warnCredit(ctx, credit, now); err != nil {
			return sent, err
		}
		s.warnings.MarkSent(credit.Id, now)
		sent++
	}

	if sent > 0 {
		s.log.Info("sweeper", "expiry warnings sent", map[string]interface{}{"count": sent})
	}
	return sent, nil
}

func (s *sweeperService) warnCredit(ctx context.Context, credit *entity.MakeupCredit, now time.Time) error {
	uow := s.factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	daysLeft := int(credit.ExpiresAt.Sub(now).Hours() / 24)
	err := uow.OutboxRepository().Enqueue(ctx, &entity.OutboxMessage{
		Id:       uuid.New(),
		UserId:   credit.StudentId,
		TypeCode: entity.NotifMakeupExpiryWarning,
		Title:    "Makeup credit expiring soon",
		Message:  fmt.Sprintf("Your makeup credit expires on %s. Book a replacement lesson before then.", credit.ExpiresAt.Format("2 January 2006")),
		Payload: map[string]interface{}{
			"credit_id":  credit.Id.String(),
			"expires_at": credit.ExpiresAt.Format(time.RFC3339),
			"days_left":  daysLeft,
		},
		Status:    entity.OutboxStatusPending,
		CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue warning: %w", err)
	}

	err = uow.AuditLogRepository().Record(ctx, &entity.AuditEntry{
		Id:         uuid.New(),
		EntityType: "makeup_credit",
		EntityId:   credit.Id,
		Action:     entity.AuditActionExpiryWarning,
		Actor:      "system",
		Details: map[string]interface{}{
			"expires_at": credit.ExpiresAt.Format(time.RFC3339),
			"days_left":  daysLeft,
		},
		OccurredAt: now,
	})
	if err != nil {
		return fmt.Errorf("failed to record warning audit entry: %w", err)
	}

	return uow.Commit()
}

// Start runs the sweep loop until Stop is called. The first sweep fires
// immediately.
func (s *sweeperService) Start() {
	go func() {
		s.sweep()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stopChan:
				return
			}
		}
	}()
}

func (s *sweeperService) Stop() {
	close(s.stopChan)
}

func (s *sweeperService) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	release, ok := s.acquireLock(ctx)
	if !ok {
		s.log.Debug("sweeper", "another instance holds the run lock, skipping", nil)
		return
	}
	defer release()

	if _, err := s.ExpireOverdue(ctx); err != nil {
		s.log.Error("sweeper", "expiry pass failed", map[string]interface{}{"error": err.Error()})
	}
	if _, err := s.EmitExpiryWarnings(ctx); err != nil {
		s.log.Error("sweeper", "warning pass failed", map[string]interface{}{"error": err.Error()})
	}
}

// acquireLock takes the shared run lock so overlapping sweeps across
// instances cannot double-process.
func (s *sweeperService) acquireLock(ctx context.Context) (func(), bool) {
	if s.rdb == nil {
		return func() {}, true
	}
	token := uuid.NewString()
	ok, err := s.rdb.SetNX(ctx, sweeperLockKey, token, sweeperLockTTL).Result()
	if err != nil {
		s.log.Warn("sweeper", "run lock unavailable, proceeding without it", map[string]interface{}{"error": err.Error()})
		return func() {}, true
	}
	if !ok {
		return nil, false
	}
	return func() {
		if val, err := s.rdb.Get(ctx, sweeperLockKey).Result(); err == nil && val == token {
			s.rdb.Del(ctx, sweeperLockKey)
		}
	}, true
}
