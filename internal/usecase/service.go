package usecase

import (
	"time"

	"bondoutfit/internal/data/repository"
	"bondoutfit/internal/lifecycle"
	"bondoutfit/pkg/lock"
	"bondoutfit/pkg/metrics"
	"bondoutfit/pkg/notify"
	"bondoutfit/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth     AuthService
	Store    StoreService
	Visit    VisitService
	Sweep    SweepService
	Notifier *Notifier
}

// Dependencies are the collaborators built outside the service layer.
type Dependencies struct {
	Sender  notify.Sender
	Locker  lock.Locker
	Metrics *metrics.Metrics
	Clock   func() time.Time
}

func NewService(repo *repository.Repository, config *utils.Config, deps Dependencies, log *zap.Logger) (*Service, error) {
	loc, err := time.LoadLocation(config.App.Timezone)
	if err != nil {
		return nil, err
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewNop()
	}
	if deps.Locker == nil {
		deps.Locker = lock.NewLocalLocker()
	}

	policy := lifecycle.PolicyFromConfig(config.Visit, loc)
	notifier := NewNotifier(repo, deps.Sender, config, deps.Metrics, log)
	notifier.now = deps.Clock

	return &Service{
		Auth:     NewAuthService(repo, config, log),
		Store:    NewStoreService(repo, log),
		Visit:    NewVisitService(repo, policy, notifier, deps.Metrics, deps.Clock, log),
		Sweep:    NewSweepService(repo, policy, notifier, deps.Locker, config.Cron.LockTTL, deps.Metrics, deps.Clock, log),
		Notifier: notifier,
	}, nil
}

// stamp returns now at the precision PostgreSQL stores, so a value written
// as the row version compares equal when read back.
func stamp(clock func() time.Time) time.Time {
	return clock().UTC().Truncate(time.Microsecond)
}
