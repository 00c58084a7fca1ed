// Package alert delivers soft-failure notifications to a human channel.
// Identical messages are suppressed for a cooldown window so a sustained
// condition cannot flood the channel.
package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	pkgLog "hoursync/pkg/log"
)

// Sender delivers a message to a chat. Satisfied by *telegram.Bot.
type Sender interface {
	SendMessage(chatID int64, text string) error
}

// Alerter logs every alert and forwards new ones to the channel. A nil
// sender degrades to log-only, which keeps the daemon usable without a bot
// token configured.
type Alerter struct {
	l      pkgLog.Logger
	sender Sender
	chatID int64
	seen   *expirable.LRU[string, time.Time]
}

// New creates an Alerter with the given cooldown between identical messages.
func New(l pkgLog.Logger, sender Sender, chatID int64, cooldown time.Duration) *Alerter {
	return &Alerter{
		l:      l,
		sender: sender,
		chatID: chatID,
		seen:   expirable.NewLRU[string, time.Time](1000, nil, cooldown),
	}
}

// Alert sends msg unless an identical message went out within the cooldown.
func (a *Alerter) Alert(ctx context.Context, msg string) {
	a.l.Warn(ctx, msg)
	if a.sender == nil || a.chatID == 0 {
		return
	}
	if _, ok := a.seen.Get(msg); ok {
		return
	}
	a.seen.Add(msg, time.Now())
	if err := a.sender.SendMessage(a.chatID, msg); err != nil {
		a.l.Errorf(ctx, "alert: failed to deliver %q: %v", msg, err)
	}
}

// Alertf is Alert with formatting.
func (a *Alerter) Alertf(ctx context.Context, template string, args ...any) {
	a.Alert(ctx, fmt.Sprintf(template, args...))
}
