package service

import (
	"time"

	"github.com/clubroll/clubroll/internal/config"
	"github.com/clubroll/clubroll/internal/domain/auditlog"
	"github.com/clubroll/clubroll/internal/domain/invoice"
	"github.com/clubroll/clubroll/internal/domain/membership"
	"github.com/clubroll/clubroll/internal/domain/pause"
	"github.com/clubroll/clubroll/internal/domain/payment"
	"github.com/clubroll/clubroll/internal/domain/subscription"
	"github.com/clubroll/clubroll/internal/integration/provider"
	"github.com/clubroll/clubroll/internal/logger"
	"github.com/clubroll/clubroll/internal/postgres"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient

	// Repositories
	SubRepo        subscription.Repository
	MembershipRepo membership.Repository
	PauseRepo      pause.Repository
	PaymentRepo    payment.Repository
	InvoiceRepo    invoice.Repository
	AuditRepo      auditlog.Repository

	// External processor
	Provider provider.Adapter

	// Now is the injected clock. Nil falls back to time.Now; tests pin it
	// to make scheduling and credit math deterministic.
	Now func() time.Time
}

func (p ServiceParams) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	subRepo subscription.Repository,
	membershipRepo membership.Repository,
	pauseRepo pause.Repository,
	paymentRepo payment.Repository,
	invoiceRepo invoice.Repository,
	auditRepo auditlog.Repository,
	providerAdapter provider.Adapter,
) ServiceParams {
	return ServiceParams{
		Logger:         logger,
		Config:         config,
		DB:             db,
		SubRepo:        subRepo,
		MembershipRepo: membershipRepo,
		PauseRepo:      pauseRepo,
		PaymentRepo:    paymentRepo,
		InvoiceRepo:    invoiceRepo,
		AuditRepo:      auditRepo,
		Provider:       providerAdapter,
	}
}
