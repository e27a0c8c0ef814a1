// Package notify fans notification intents out to their role-restricted
// audience.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/danutirta/childguard_bot/internal/model"
	"go.uber.org/zap"
)

// ErrNoAudience: the intent resolved to zero recipients. Logged distinctly
// from a successful send so orphaned children are visible to operators.
var ErrNoAudience = errors.New("no recipients for intent")

// Sender delivers one outbound message, optionally with quick-reply
// options. Fire-and-forget from the dispatcher's viewpoint.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string, quickReplies []string) error
}

// AudienceResolver looks up the chats linked to a child under a role.
type AudienceResolver interface {
	HoldersFor(ctx context.Context, childID int64, role model.Role) ([]int64, error)
}

const sendTimeout = 5 * time.Second

// Dispatcher is the stateless fan-out layer. Pickup-flow intents go only to
// the initiating guardian; fall alerts go to every active teacher of the
// child and never to guardians on this path.
type Dispatcher struct {
	sender   Sender
	audience AudienceResolver
	logger   *zap.Logger
}

func NewDispatcher(sender Sender, audience AudienceResolver, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		sender:   sender,
		audience: audience,
		logger:   logger,
	}
}

// Dispatch resolves the intent's audience and sends one message per
// recipient. A failed delivery never stops the remaining recipients;
// failures are logged, not retried.
func (d *Dispatcher) Dispatch(ctx context.Context, it model.Intent) (int, error) {
	recipients, err := d.resolveAudience(ctx, it)
	if err != nil {
		return 0, err
	}
	if len(recipients) == 0 {
		d.logger.Warn("Intent has no audience",
			zap.String("kind", string(it.Kind)),
			zap.String("event_id", it.ID.String()),
			childField(it.Child),
		)
		return 0, ErrNoAudience
	}

	text, quickReplies := renderMessage(it)

	delivered := 0
	for _, chatID := range recipients {
		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		err := d.sender.Send(sendCtx, chatID, text, quickReplies)
		cancel()

		if err != nil {
			d.logger.Warn("Delivery failed",
				zap.String("kind", string(it.Kind)),
				zap.Int64("chat_id", chatID),
				zap.Error(err))
			continue
		}
		delivered++
	}

	d.logger.Info("Intent dispatched",
		zap.String("kind", string(it.Kind)),
		zap.String("event_id", it.ID.String()),
		zap.Int("recipients", len(recipients)),
		zap.Int("delivered", delivered),
	)

	return delivered, nil
}

func (d *Dispatcher) resolveAudience(ctx context.Context, it model.Intent) ([]int64, error) {
	if it.Kind == model.IntentFallAlert {
		return d.audience.HoldersFor(ctx, it.Child.ID, model.RoleTeacher)
	}
	return []int64{it.GuardianChatID}, nil
}

func childField(child *model.Child) zap.Field {
	if child == nil {
		return zap.Skip()
	}
	return zap.Int64("child_id", child.ID)
}
