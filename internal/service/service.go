package service

import (
	"context"
	"fmt"
	"time"

	"github.com/memberbase/memberbase/internal/cache"
	"github.com/memberbase/memberbase/internal/clock"
	"github.com/memberbase/memberbase/internal/config"
	"github.com/memberbase/memberbase/internal/domain/grace"
	"github.com/memberbase/memberbase/internal/domain/level"
	"github.com/memberbase/memberbase/internal/domain/membership"
	"github.com/memberbase/memberbase/internal/domain/payment"
	"github.com/memberbase/memberbase/internal/email"
	"github.com/memberbase/memberbase/internal/logger"
)

const cacheKeyLevel = "level:catalog:%s"

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	Clock  clock.Clock
	Cache  cache.Cache

	GraceRepo      grace.Repository
	MembershipRepo membership.Repository
	LevelRepo      level.Repository
	PaymentRepo    payment.Repository

	EmailSender email.Sender
}

// GraceWindow returns the configured grace window as a day count.
func (p ServiceParams) GraceWindow() int {
	return p.Config.Grace.WindowDays
}

// getLevel looks up a membership level through the catalog cache.
func (p ServiceParams) getLevel(ctx context.Context, levelID string) (*level.MembershipLevel, error) {
	cacheKey := fmt.Sprintf(cacheKeyLevel, levelID)
	if p.Cache != nil {
		if cached, found := cache.GetTyped[level.MembershipLevel](ctx, p.Cache, cacheKey); found {
			return cached, nil
		}
	}

	lvl, err := p.LevelRepo.GetLevel(ctx, levelID)
	if err != nil {
		return nil, err
	}

	if p.Cache != nil {
		p.Cache.Set(ctx, cacheKey, lvl, cache.ExpiryLevelCatalog)
	}
	return lvl, nil
}

// now returns the injected clock's current time, falling back to the wall
// clock when none was wired.
func (p ServiceParams) now() time.Time {
	if p.Clock != nil {
		return p.Clock.Now()
	}
	return time.Now().UTC()
}
