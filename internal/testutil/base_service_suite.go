package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/memberbase/memberbase/internal/cache"
	"github.com/memberbase/memberbase/internal/clock"
	"github.com/memberbase/memberbase/internal/config"
	"github.com/memberbase/memberbase/internal/logger"
	"github.com/memberbase/memberbase/internal/types"
)

// Stores bundles the repository fakes used by service tests.
type Stores struct {
	Grace      *InMemoryGraceStore
	Membership *InMemoryMembershipStore
	Level      *InMemoryLevelStore
	Payment    *InMemoryPaymentStore
}

// BaseServiceTestSuite provides common setup for service tests: in-memory
// repositories, a mock clock, a nop logger, and default configuration.
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	stores Stores
	clock  *clock.Mock
	cfg    *config.Configuration
	logger *logger.Logger
	sender *InMemoryEmailSender
}

// SetupTest initializes fresh state before each test.
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = types.SetUserID(context.Background(), types.DefaultUserID)
	s.stores = Stores{
		Grace:      NewInMemoryGraceStore(),
		Membership: NewInMemoryMembershipStore(),
		Level:      NewInMemoryLevelStore(),
		Payment:    NewInMemoryPaymentStore(),
	}
	s.clock = clock.NewMock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	s.cfg = config.GetDefaultConfig()
	s.logger = logger.NewNopLogger()
	s.sender = NewInMemoryEmailSender()

	cache.GetInMemoryCache().Flush(s.ctx)
}

// TearDownTest clears state after each test.
func (s *BaseServiceTestSuite) TearDownTest() {
	s.stores.Grace.Clear()
	s.stores.Membership.Clear()
	s.stores.Level.Clear()
	s.stores.Payment.Clear()
	s.sender.Reset()
}

// GetContext returns the test context.
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetStores returns the repository fakes.
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetClock returns the mock clock.
func (s *BaseServiceTestSuite) GetClock() *clock.Mock {
	return s.clock
}

// GetConfig returns the test configuration.
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.cfg
}

// GetLogger returns the test logger.
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetEmailSender returns the recording email sender.
func (s *BaseServiceTestSuite) GetEmailSender() *InMemoryEmailSender {
	return s.sender
}
