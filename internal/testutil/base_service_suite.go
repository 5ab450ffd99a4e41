package testutil

import (
	"context"
	"time"

	"github.com/clubroll/clubroll/internal/config"
	"github.com/clubroll/clubroll/internal/domain/auditlog"
	"github.com/clubroll/clubroll/internal/domain/invoice"
	"github.com/clubroll/clubroll/internal/domain/membership"
	"github.com/clubroll/clubroll/internal/domain/pause"
	"github.com/clubroll/clubroll/internal/domain/payment"
	"github.com/clubroll/clubroll/internal/domain/subscription"
	"github.com/clubroll/clubroll/internal/logger"
	"github.com/clubroll/clubroll/internal/postgres"
	"github.com/clubroll/clubroll/internal/types"
	"github.com/stretchr/testify/suite"
)

// TestAccountKey is the processor account configured in the test suite.
const TestAccountKey = "club-main"

// Stores holds all the repository interfaces for testing
type Stores struct {
	SubRepo        subscription.Repository
	MembershipRepo membership.Repository
	PauseRepo      pause.Repository
	PaymentRepo    payment.Repository
	InvoiceRepo    invoice.Repository
	AuditRepo      auditlog.Repository
}

// BaseServiceTestSuite provides common functionality for all service test
// suites: in-memory stores, a fake processor and a pinned clock.
type BaseServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	stores   Stores
	provider *FakeProviderAdapter
	db       postgres.IClient
	logger   *logger.Logger
	config   *config.Configuration
	now      time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	cfg := &config.Configuration{
		Deployment: config.DeploymentConfig{Mode: types.ModeLocal},
		Logging: config.LoggingConfig{
			Level: types.LogLevelInfo,
		},
		Stripe: config.StripeConfig{
			Accounts: []config.StripeAccount{
				{
					Key:           TestAccountKey,
					SecretKey:     "sk_test_unit",
					WebhookSecret: "whsec_test_unit",
				},
			},
		},
	}
	var err error
	s.config = cfg
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupStores()
	s.now = time.Date(2026, time.April, 10, 12, 0, 0, 0, time.UTC)
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = context.Background()
	s.ctx = types.SetTenantID(s.ctx, types.DefaultTenantID)
	s.ctx = types.SetUserID(s.ctx, types.DefaultUserID)
	s.ctx = types.SetRequestID(s.ctx, types.GenerateUUID())
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		SubRepo:        NewInMemorySubscriptionStore(),
		MembershipRepo: NewInMemoryMembershipStore(),
		PauseRepo:      NewInMemoryPauseStore(),
		PaymentRepo:    NewInMemoryPaymentStore(),
		InvoiceRepo:    NewInMemoryInvoiceStore(),
		AuditRepo:      NewInMemoryAuditLogStore(),
	}
	s.provider = NewFakeProviderAdapter()
	s.db = NewMockPostgresClient(s.logger)
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.SubRepo.(*InMemorySubscriptionStore).Clear()
	s.stores.MembershipRepo.(*InMemoryMembershipStore).Clear()
	s.stores.PauseRepo.(*InMemoryPauseStore).Clear()
	s.stores.PaymentRepo.(*InMemoryPaymentStore).Clear()
	s.stores.InvoiceRepo.(*InMemoryInvoiceStore).Clear()
	s.stores.AuditRepo.(*InMemoryAuditLogStore).Clear()
	s.provider.Clear()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetProvider returns the fake processor adapter
func (s *BaseServiceTestSuite) GetProvider() *FakeProviderAdapter {
	return s.provider
}

// GetDB returns the test database client
func (s *BaseServiceTestSuite) GetDB() postgres.IClient {
	return s.db
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the pinned test clock
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}

// SetNow moves the pinned test clock
func (s *BaseServiceTestSuite) SetNow(t time.Time) {
	s.now = t.UTC()
}

// AdvanceClock moves the pinned test clock forward
func (s *BaseServiceTestSuite) AdvanceClock(d time.Duration) {
	s.now = s.now.Add(d)
}

// ClockFunc returns a clock function reading the pinned test clock. The
// suite field is read at call time, so tests can move the clock mid-test.
func (s *BaseServiceTestSuite) ClockFunc() func() time.Time {
	return func() time.Time {
		return s.now
	}
}
