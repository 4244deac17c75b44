package ports

import "context"

// NotificationKind identifies the message template.
type NotificationKind string

const (
	NotifyVerifyEmail      NotificationKind = "verify_email"
	NotifyBookingCreated   NotificationKind = "booking_created"
	NotifyBookingConfirmed NotificationKind = "booking_confirmed"
	NotifyBookingCanceled  NotificationKind = "booking_canceled"
)

// Notification is an outbound message request produced by the services.
type Notification struct {
	ID   string
	Kind NotificationKind
	To   string
	Key  string // ordering key: booking id, or user id for account mail
	Data map[string]string
}

// Notifier accepts notifications for asynchronous delivery. Enqueue never
// blocks the caller and never reports delivery failures.
type Notifier interface {
	Enqueue(n Notification)
}

// NotificationService renders and delivers a single notification.
type NotificationService interface {
	Deliver(ctx context.Context, n Notification) error
}
