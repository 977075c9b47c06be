// Seeds a local database with demo levels, memberships and orders so the
// admin console and the donations report have data to show.
package main

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/memberbase/memberbase/internal/config"
	"github.com/memberbase/memberbase/internal/domain/level"
	"github.com/memberbase/memberbase/internal/domain/membership"
	"github.com/memberbase/memberbase/internal/domain/payment"
	ierr "github.com/memberbase/memberbase/internal/errors"
	"github.com/memberbase/memberbase/internal/logger"
	"github.com/memberbase/memberbase/internal/postgres"
	pgrepo "github.com/memberbase/memberbase/internal/repository/postgres"
	"github.com/memberbase/memberbase/internal/types"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		logger.GetLogger().Fatalw("failed to load configuration", "error", err)
	}
	log, err := logger.NewLogger(cfg)
	if err != nil {
		logger.GetLogger().Fatalw("failed to initialize logger", "error", err)
	}

	db, err := postgres.NewClient(cfg, log)
	if err != nil {
		log.Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx := types.SetUserID(context.Background(), "seed")
	levels := pgrepo.NewLevelRepository(db, log)
	memberships := pgrepo.NewMembershipRepository(db, log)
	payments := pgrepo.NewPaymentRepository(db, log)

	demoLevels := []*level.MembershipLevel{
		{ID: "level_monthly", Name: "Monthly", PeriodUnit: types.BILLING_PERIOD_MONTH, PeriodCount: 1},
		{ID: "level_annual", Name: "Annual", PeriodUnit: types.BILLING_PERIOD_YEAR, PeriodCount: 1},
		{ID: "level_lifetime", Name: "Lifetime", PeriodCount: 0},
	}
	for _, l := range demoLevels {
		l.BaseModel = types.GetDefaultBaseModel(ctx)
		if err := levels.Create(ctx, l); err != nil && !ierr.IsAlreadyExists(err) {
			log.Fatalw("failed to seed level", "error", err, "level_id", l.ID)
		}
	}

	now := time.Now().UTC()
	demoMembers := []*membership.Membership{
		{MemberID: "mem_alice", MemberEmail: "alice@example.com", LevelID: "level_monthly",
			EndDate: lo.ToPtr(now.AddDate(0, 0, 28)), MembershipStatus: types.MembershipStatusActive},
		{MemberID: "mem_bob", MemberEmail: "bob@example.com", LevelID: "level_annual",
			EndDate: lo.ToPtr(now.AddDate(0, 0, 10)), MembershipStatus: types.MembershipStatusActive},
		{MemberID: "mem_carol", MemberEmail: "carol@example.com", LevelID: "level_lifetime",
			MembershipStatus: types.MembershipStatusActive},
	}
	for _, m := range demoMembers {
		m.BaseModel = types.GetDefaultBaseModel(ctx)
		if err := memberships.Create(ctx, m); err != nil && !ierr.IsAlreadyExists(err) {
			log.Fatalw("failed to seed membership", "error", err, "member_id", m.MemberID)
		}
	}

	demoOrders := []*payment.Order{
		{MemberID: "mem_alice", MemberEmail: "alice@example.com", MemberName: "Alice",
			LevelID: "level_monthly", LevelName: "Monthly",
			Amount: decimal.NewFromInt(15), DonationAmount: decimal.NewFromInt(10),
			Timestamp: now.AddDate(0, -2, 0)},
		{MemberID: "mem_bob", MemberEmail: "bob@example.com", MemberName: "Bob",
			LevelID: "level_annual", LevelName: "Annual",
			Amount: decimal.NewFromInt(120), DonationAmount: decimal.RequireFromString("25.50"),
			Timestamp: now.AddDate(0, -8, 0)},
		{MemberID: "mem_carol", MemberEmail: "carol@example.com", MemberName: "Carol",
			LevelID: "level_lifetime", LevelName: "Lifetime",
			Amount: decimal.NewFromInt(500), DonationAmount: decimal.Zero,
			Timestamp: now.AddDate(0, -1, 0)},
	}
	for _, o := range demoOrders {
		o.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ORDER)
		o.BaseModel = types.GetDefaultBaseModel(ctx)
		if err := payments.Create(ctx, o); err != nil {
			log.Fatalw("failed to seed order", "error", err, "member_id", o.MemberID)
		}
	}

	log.Infow("seed complete",
		"levels", len(demoLevels),
		"members", len(demoMembers),
		"orders", len(demoOrders),
	)
}
