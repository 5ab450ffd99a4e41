package repository

import (
	"github.com/clubroll/clubroll/internal/cache"
	"github.com/clubroll/clubroll/internal/domain/auditlog"
	"github.com/clubroll/clubroll/internal/domain/invoice"
	"github.com/clubroll/clubroll/internal/domain/membership"
	"github.com/clubroll/clubroll/internal/domain/pause"
	"github.com/clubroll/clubroll/internal/domain/payment"
	"github.com/clubroll/clubroll/internal/domain/subscription"
	"github.com/clubroll/clubroll/internal/logger"
	"github.com/clubroll/clubroll/internal/postgres"
	postgresRepo "github.com/clubroll/clubroll/internal/repository/postgres"
)

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger, cache cache.Cache) subscription.Repository {
	return postgresRepo.NewSubscriptionRepository(db, logger, cache)
}

func NewMembershipRepository(db *postgres.DB, logger *logger.Logger) membership.Repository {
	return postgresRepo.NewMembershipRepository(db, logger)
}

func NewPauseRepository(db *postgres.DB, logger *logger.Logger) pause.Repository {
	return postgresRepo.NewPauseRepository(db, logger)
}

func NewPaymentRepository(db *postgres.DB, logger *logger.Logger) payment.Repository {
	return postgresRepo.NewPaymentRepository(db, logger)
}

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return postgresRepo.NewInvoiceRepository(db, logger)
}

func NewAuditLogRepository(db *postgres.DB, logger *logger.Logger) auditlog.Repository {
	return postgresRepo.NewAuditLogRepository(db, logger)
}
