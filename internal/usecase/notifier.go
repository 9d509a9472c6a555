package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bondoutfit/internal/data/entity"
	"bondoutfit/internal/data/repository"
	"bondoutfit/pkg/metrics"
	"bondoutfit/pkg/notify"
	"bondoutfit/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Notice is one message to a customer or to a store.
type Notice struct {
	Type       entity.NotificationType
	Audience   entity.NotificationAudience
	VisitID    *uuid.UUID
	CustomerID uuid.UUID
	StoreID    uuid.UUID
	Subject    string
	Body       string
}

// Notifier records and delivers notifications. Delivery happens in the
// background and never reports back to the caller's transition.
type Notifier struct {
	repo    *repository.Repository
	sender  notify.Sender
	limiter *rate.Limiter
	metrics *metrics.Metrics
	timeout time.Duration
	sms     bool
	log     *zap.Logger
	now     func() time.Time
	wg      sync.WaitGroup
}

func NewNotifier(repo *repository.Repository, sender notify.Sender, config *utils.Config, m *metrics.Metrics, log *zap.Logger) *Notifier {
	limit := rate.Inf
	if config.Notify.RatePerSecond > 0 {
		limit = rate.Limit(config.Notify.RatePerSecond)
	}
	burst := config.Notify.Burst
	if burst < 1 {
		burst = 1
	}
	timeout := config.Notify.SendTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Notifier{
		repo:    repo,
		sender:  sender,
		limiter: rate.NewLimiter(limit, burst),
		metrics: m,
		timeout: timeout,
		sms:     config.SMS.Enabled,
		log:     log.With(zap.String("service", "notifier")),
		now:     time.Now,
	}
}

// Dispatch records and sends n in the background.
func (n *Notifier) Dispatch(notice Notice) {
	if n.sender == nil {
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		rows, err := n.record(ctx, notice)
		if err != nil {
			n.log.Warn("Failed to record notification", zap.Error(err), zap.String("type", string(notice.Type)))
			return
		}
		n.deliver(ctx, rows)
	}()
}

// DispatchOnce records notice unless one of the same type was already recorded
// for the visit and audience, then sends it in the background. It reports
// whether a new notification was queued.
func (n *Notifier) DispatchOnce(ctx context.Context, notice Notice) (bool, error) {
	if n.sender == nil || notice.VisitID == nil {
		return false, nil
	}

	exists, err := n.repo.Notification.Exists(ctx, *notice.VisitID, notice.Type, notice.Audience)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	rows, err := n.record(ctx, notice)
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		n.deliver(sendCtx, rows)
	}()
	return true, nil
}

// Wait blocks until queued deliveries finish.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

type recipient struct {
	userID *uuid.UUID
	email  string
	phone  *string
}

func (n *Notifier) resolve(ctx context.Context, notice Notice) (*recipient, error) {
	if notice.Audience == entity.AudienceCustomer {
		user, err := n.repo.User.FindByID(ctx, notice.CustomerID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, fmt.Errorf("customer %s not found", notice.CustomerID)
		}
		return &recipient{userID: &user.ID, email: user.Email, phone: user.Phone}, nil
	}

	store, err := n.repo.Store.FindByID(ctx, notice.StoreID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("store %s not found", notice.StoreID)
	}
	manager, err := n.repo.User.FindByID(ctx, store.ManagerID)
	if err != nil {
		return nil, err
	}

	r := &recipient{phone: store.Phone}
	if manager != nil {
		r.userID = &manager.ID
		r.email = manager.Email
	}
	if store.Email != nil && *store.Email != "" {
		r.email = *store.Email
	}
	return r, nil
}

func (n *Notifier) record(ctx context.Context, notice Notice) ([]*entity.Notification, error) {
	to, err := n.resolve(ctx, notice)
	if err != nil {
		return nil, err
	}

	targets := map[entity.NotificationChannel]string{}
	if to.email != "" {
		targets[entity.ChannelEmail] = to.email
	}
	if n.sms && to.phone != nil && *to.phone != "" {
		targets[entity.ChannelSMS] = *to.phone
	}

	var rows []*entity.Notification
	for channel, address := range targets {
		row := &entity.Notification{
			BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: n.now()},
			VisitID:    notice.VisitID,
			UserID:     to.userID,
			Type:       notice.Type,
			Audience:   notice.Audience,
			Channel:    channel,
			Recipient:  address,
			Subject:    notice.Subject,
			Body:       notice.Body,
			Status:     entity.NotificationPending,
		}
		if err := n.repo.Notification.Create(ctx, row); err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func (n *Notifier) deliver(ctx context.Context, rows []*entity.Notification) {
	for _, row := range rows {
		if err := n.limiter.Wait(ctx); err != nil {
			n.finish(ctx, row, err)
			continue
		}
		err := n.sender.Send(ctx, notify.Message{
			Channel: notify.Channel(row.Channel),
			To:      row.Recipient,
			Subject: row.Subject,
			Body:    row.Body,
		})
		n.finish(ctx, row, err)
	}
}

func (n *Notifier) finish(ctx context.Context, row *entity.Notification, sendErr error) {
	status := entity.NotificationSent
	var (
		errText *string
		sentAt  *time.Time
	)
	if sendErr != nil {
		status = entity.NotificationFailed
		msg := sendErr.Error()
		errText = &msg
		n.log.Warn("Notification delivery failed",
			zap.Error(sendErr),
			zap.String("notification_id", row.ID.String()),
			zap.String("type", string(row.Type)),
			zap.String("channel", string(row.Channel)),
		)
	} else {
		t := n.now()
		sentAt = &t
	}

	row.Status = status
	row.Error = errText
	row.SentAt = sentAt
	n.metrics.IncNotification(string(row.Type), string(status))

	// the send deadline may have passed, the status write gets its own
	updCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := n.repo.Notification.UpdateStatus(updCtx, row.ID, status, errText, sentAt); err != nil {
		n.log.Warn("Failed to update notification status", zap.Error(err), zap.String("notification_id", row.ID.String()))
	}
}
