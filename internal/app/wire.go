package service

import (
	"context"
	"errors"

	"github.com/okian/relocator/internal/adapters/mail"
	"github.com/okian/relocator/internal/adapters/repository"
	"github.com/okian/relocator/internal/adapters/sessions"
	"github.com/okian/relocator/internal/config"
	"github.com/okian/relocator/internal/domain/catalog"
	"github.com/okian/relocator/internal/domain/estimate"
	"github.com/okian/relocator/internal/domain/model"
	"github.com/okian/relocator/pkg/logger"
)

// EstimatorOptions translates the estimator settings of cfg.
func EstimatorOptions(cfg *config.Config) []estimate.Option {
	costs := make(map[model.MoveTier]float64, len(cfg.MoveTierCosts))
	for tier, cost := range cfg.MoveTierCosts {
		costs[model.MoveTier(tier)] = cost
	}
	return []estimate.Option{
		estimate.WithTierCosts(costs),
		estimate.WithDefaultTier(model.MoveTier(cfg.DefaultMoveTier)),
		estimate.WithHouseholdSurcharge(cfg.HouseholdSurcharge),
		estimate.WithPerPersonAllowance(cfg.PerPersonAllowance),
		estimate.WithCostOfLivingFactor(cfg.CostOfLivingFactor),
		estimate.WithBreakEvenFallback(cfg.BreakEvenFallback),
	}
}

// LoadCatalog returns the catalog named by cfg, or the built-in one.
func LoadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.CatalogPath == "" {
		return catalog.Builtin(), nil
	}
	return catalog.LoadFile(cfg.CatalogPath)
}

// FromConfig opens the adapters selected by cfg and returns a Service
// ready to Start. Adapters opened before a failure are closed again.
func FromConfig(ctx context.Context, cfg *config.Config, log logger.Logger) (*Service, error) {
	cat, err := LoadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	leads, err := repository.Open(ctx, cfg.LeadStore, cfg.LeadStoreDSN)
	if err != nil {
		return nil, err
	}

	sess, err := sessions.Open(ctx, cfg.SessionStore,
		sessions.RedisConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		sessions.WithTTL(cfg.SessionTTL),
		sessions.WithCapacity(cfg.SessionCapacity),
	)
	if err != nil {
		return nil, errors.Join(err, leads.Close())
	}

	sender, err := mail.New(ctx, mail.Config{
		Provider:  cfg.MailProvider,
		From:      cfg.MailFrom,
		SMTPHost:  cfg.SMTPHost,
		SMTPPort:  cfg.SMTPPort,
		SMTPUser:  cfg.SMTPUser,
		SMTPPass:  cfg.SMTPPass,
		SESRegion: cfg.SESRegion,
	}, log.Named("mail"))
	if err != nil {
		return nil, errors.Join(err, sess.Close(), leads.Close())
	}

	opts := []Option{
		WithLogger(log),
		WithCatalog(cat),
		WithEstimator(estimate.New(EstimatorOptions(cfg)...)),
		WithLeadStore(leads),
		WithSessionStore(sess),
		WithSender(sender),
		WithMailIdentity(cfg.MailBrand, cfg.MailFrom),
		WithQueueSize(cfg.MailQueueSize),
		WithWorkerCount(cfg.MailWorkerCount),
		WithMaxLeadsLimit(cfg.MaxLeadsLimit),
	}
	if cfg.CatalogWatch && cfg.CatalogPath != "" {
		opts = append(opts, WithCatalogWatch(cfg.CatalogPath))
	}
	return New(opts...), nil
}
