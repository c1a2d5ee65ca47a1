package alert

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Notification describes a discussion whose hot score crossed the alert
// threshold.
type Notification struct {
	EventTitle string    `json:"eventTitle"`
	IsGlobal   bool      `json:"isGlobal"`
	PostID     string    `json:"postId"`
	PostTitle  string    `json:"postTitle"`
	PostAuthor string    `json:"postAuthor"`
	PostDate   time.Time `json:"postDate"`
	HotScore   int       `json:"hotScore"`
	Likes      int       `json:"likesCount"`
	Comments   int       `json:"commentsCount"`
}

// Notifier delivers alerts to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new alert manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return len(m.notifiers) > 0
}

// Broadcast sends a notification to all registered notifiers.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}
