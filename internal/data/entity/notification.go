package entity

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationVisitMissed        NotificationType = "visit_missed"
	NotificationVisitMissedWarning NotificationType = "visit_missed_warning"
	NotificationVisitCancelled     NotificationType = "visit_cancelled"
	NotificationBulkCancelled      NotificationType = "visits_bulk_cancelled"
	NotificationVisitRescheduled   NotificationType = "visit_rescheduled"
)

type NotificationAudience string

const (
	AudienceCustomer NotificationAudience = "customer"
	AudienceStore    NotificationAudience = "store"
)

type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
)

type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
)

type Notification struct {
	BaseSimple
	VisitID   *uuid.UUID           `db:"visit_id"`
	UserID    *uuid.UUID           `db:"user_id"`
	Type      NotificationType     `db:"type"`
	Audience  NotificationAudience `db:"audience"`
	Channel   NotificationChannel  `db:"channel"`
	Recipient string               `db:"recipient"`
	Subject   string               `db:"subject"`
	Body      string               `db:"body"`
	Status    NotificationStatus   `db:"status"`
	Error     *string              `db:"error"`
	SentAt    *time.Time           `db:"sent_at"`
}
