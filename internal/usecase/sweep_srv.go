package usecase

import (
	"context"
	"errors"
	"time"

	"bondoutfit/internal/apperr"
	"bondoutfit/internal/data/entity"
	"bondoutfit/internal/data/repository"
	"bondoutfit/internal/dto/response"
	"bondoutfit/internal/lifecycle"
	"bondoutfit/pkg/lock"
	"bondoutfit/pkg/metrics"

	"go.uber.org/zap"
)

const sweepLockKey = "missed-visit-sweep"

type SweepService interface {
	Run(ctx context.Context) (*response.SweepResponse, error)
}

type sweepService struct {
	repo     *repository.Repository
	policy   lifecycle.Policy
	notifier *Notifier
	locker   lock.Locker
	lockTTL  time.Duration
	metrics  *metrics.Metrics
	clock    func() time.Time
	log      *zap.Logger
}

func NewSweepService(
	repo *repository.Repository,
	policy lifecycle.Policy,
	notifier *Notifier,
	locker lock.Locker,
	lockTTL time.Duration,
	m *metrics.Metrics,
	clock func() time.Time,
	log *zap.Logger,
) SweepService {
	if lockTTL <= 0 {
		lockTTL = 5 * time.Minute
	}
	return &sweepService{
		repo:     repo,
		policy:   policy,
		notifier: notifier,
		locker:   locker,
		lockTTL:  lockTTL,
		metrics:  m,
		clock:    clock,
		log:      log.With(zap.String("service", "sweep")),
	}
}

// Run applies the missed-visit rules once. Every transition is a guarded
// update, so a visit is stamped at most once however often Run is called.
func (s *sweepService) Run(ctx context.Context) (*response.SweepResponse, error) {
	now := stamp(s.clock)
	result := &response.SweepResponse{Failed: []response.SweepFailure{}, RanAt: now}

	release, err := s.locker.TryLock(ctx, sweepLockKey, s.lockTTL)
	if errors.Is(err, lock.ErrNotAcquired) {
		s.log.Info("Sweep already running elsewhere, skipping")
		s.metrics.IncSweepRun("skipped")
		result.Skipped = true
		return result, nil
	}
	if err != nil {
		s.metrics.IncSweepRun("error")
		s.log.Error("Failed to take sweep lock", zap.Error(err))
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to take sweep lock")
	}
	defer release()

	start := time.Now()

	local := now.In(s.policy.Location)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	candidates, err := s.repo.Visit.FindSweepCandidates(ctx, today)
	if err != nil {
		s.metrics.IncSweepRun("error")
		s.log.Error("Failed to load sweep candidates", zap.Error(err))
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to load scheduled visits")
	}

	for _, v := range candidates {
		if ctx.Err() != nil {
			break
		}
		switch s.policy.Classify(v, now) {
		case lifecycle.SweepMarkMissed:
			s.markMissed(ctx, v, now, result)
		case lifecycle.SweepWarn:
			s.warn(ctx, v, result)
		}
	}

	stale, err := s.repo.Visit.FindStaleCheckedIn(ctx, now.Add(-s.policy.StaleCheckInAfter))
	if err != nil {
		s.log.Error("Failed to load stale check-ins", zap.Error(err))
		result.Failed = append(result.Failed, response.SweepFailure{
			Rule:  lifecycle.SweepAutoComplete.String(),
			Error: "failed to load checked-in visits",
		})
	}
	for _, v := range stale {
		if ctx.Err() != nil {
			break
		}
		if s.policy.Classify(v, now) == lifecycle.SweepAutoComplete {
			s.autoComplete(ctx, v, now, result)
		}
	}

	s.metrics.IncSweepRun("ok")
	s.metrics.AddSweepVisits(lifecycle.SweepMarkMissed.String(), result.Missed)
	s.metrics.AddSweepVisits(lifecycle.SweepWarn.String(), result.Warned)
	s.metrics.AddSweepVisits(lifecycle.SweepAutoComplete.String(), result.AutoCompleted)

	s.log.Info("Missed-visit sweep finished",
		zap.Int("candidates", len(candidates)),
		zap.Int("missed", result.Missed),
		zap.Int("warned", result.Warned),
		zap.Int("auto_completed", result.AutoCompleted),
		zap.Int("notifications", result.Notifications),
		zap.Int("failed", len(result.Failed)),
		zap.Duration("duration", time.Since(start)))

	return result, nil
}

func (s *sweepService) markMissed(ctx context.Context, v *entity.Visit, now time.Time, result *response.SweepResponse) {
	rule := lifecycle.SweepMarkMissed.String()
	prevStatus, prevVersion := v.Status, v.UpdatedAt
	if err := s.policy.MarkMissed(v, now); err != nil {
		s.fail(result, v, rule, err)
		return
	}
	v.UpdatedAt = now
	if err := s.repo.Visit.UpdateGuarded(ctx, v, prevStatus, prevVersion); err != nil {
		s.fail(result, v, rule, err)
		return
	}

	result.Missed++
	s.metrics.IncTransition(string(v.Status), "sweep")

	for _, audience := range []entity.NotificationAudience{entity.AudienceCustomer, entity.AudienceStore} {
		s.notifyOnce(ctx, missedNotice(v, audience), result)
	}
}

func (s *sweepService) warn(ctx context.Context, v *entity.Visit, result *response.SweepResponse) {
	if s.notifyOnce(ctx, missedWarningNotice(v), result) {
		result.Warned++
	}
}

func (s *sweepService) autoComplete(ctx context.Context, v *entity.Visit, now time.Time, result *response.SweepResponse) {
	rule := lifecycle.SweepAutoComplete.String()
	prevStatus, prevVersion := v.Status, v.UpdatedAt
	if err := s.policy.AutoComplete(v, now); err != nil {
		s.fail(result, v, rule, err)
		return
	}
	v.UpdatedAt = now
	if err := s.repo.Visit.UpdateGuarded(ctx, v, prevStatus, prevVersion); err != nil {
		s.fail(result, v, rule, err)
		return
	}

	result.AutoCompleted++
	s.metrics.IncTransition(string(v.Status), "sweep")
}

// notifyOnce reports whether a new notification was queued. Failures are
// logged and never affect the visit.
func (s *sweepService) notifyOnce(ctx context.Context, notice Notice, result *response.SweepResponse) bool {
	queued, err := s.notifier.DispatchOnce(ctx, notice)
	if err != nil {
		s.log.Warn("Failed to queue sweep notification",
			zap.Error(err),
			zap.String("type", string(notice.Type)),
			zap.String("audience", string(notice.Audience)))
		return false
	}
	if queued {
		result.Notifications++
	}
	return queued
}

func (s *sweepService) fail(result *response.SweepResponse, v *entity.Visit, rule string, err error) {
	s.log.Warn("Sweep item failed",
		zap.Error(err),
		zap.String("visit_id", v.ID.String()),
		zap.String("rule", rule))
	result.Failed = append(result.Failed, response.SweepFailure{
		VisitID: v.ID.String(),
		Rule:    rule,
		Error:   apperr.MessageOf(err),
	})
}

// RunSweepEvery runs the sweep on a ticker until ctx is done. A zero interval
// disables it.
func RunSweepEvery(ctx context.Context, sweep SweepService, interval time.Duration, log *zap.Logger) {
	if interval <= 0 {
		return
	}
	log = log.With(zap.String("service", "sweep_ticker"))
	log.Info("Sweep ticker started", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Sweep ticker stopped")
			return
		case <-ticker.C:
			if _, err := sweep.Run(ctx); err != nil {
				log.Error("Scheduled sweep failed", zap.Error(err))
			}
		}
	}
}
