// Package services contains the credential and session business logic:
// signup, login, refresh sessions and access-token renewal.
package services

import (
	"context"

	"github.com/dmitrijs2005/bookmarkauth/internal/logging"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/events"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/metrics"
	"github.com/dmitrijs2005/bookmarkauth/internal/timex"
)

// Deps are the collaborators shared by the services. Zero values are
// replaced by no-op implementations and the wall clock.
type Deps struct {
	Logger  logging.Logger
	Metrics *metrics.Metrics
	Events  events.Publisher
	Clock   timex.Clock
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = logging.Nop()
	}
	if d.Events == nil {
		d.Events = events.NopPublisher{}
	}
	if d.Clock == nil {
		d.Clock = timex.Now
	}
	return d
}

// publish logs and drops publish failures.
func (d Deps) publish(ctx context.Context, subject string, v any) {
	if err := d.Events.Publish(ctx, subject, v); err != nil {
		d.Logger.Warn(ctx, "event publish failed", "subject", subject, "err", err)
	}
}
