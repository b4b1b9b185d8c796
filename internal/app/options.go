package service

import (
	"github.com/okian/relocator/internal/adapters/mail"
	"github.com/okian/relocator/internal/adapters/repository"
	"github.com/okian/relocator/internal/adapters/sessions"
	"github.com/okian/relocator/internal/domain/catalog"
	"github.com/okian/relocator/internal/domain/estimate"
	"github.com/okian/relocator/internal/domain/matching"
	"github.com/okian/relocator/pkg/logger"
)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCatalog serves regions from c instead of the built-in catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = catalog.NewHolder(c)
		}
	}
}

// WithCatalogWatch reloads the catalog from path while the service runs.
func WithCatalogWatch(path string) Option {
	return func(s *Service) {
		s.watchPath = path
	}
}

// WithEstimator replaces the default estimator.
func WithEstimator(e *estimate.Estimator) Option {
	return func(s *Service) {
		if e != nil {
			s.estimator = e
		}
	}
}

// WithMatcher replaces the default matcher.
func WithMatcher(m *matching.Matcher) Option {
	return func(s *Service) {
		if m != nil {
			s.matcher = m
		}
	}
}

// WithLeadStore sets the lead store. The service closes it on Stop.
func WithLeadStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.leads = st
		}
	}
}

// WithSessionStore sets the session store. The service closes it on Stop.
func WithSessionStore(st sessions.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.sessions = st
		}
	}
}

// WithSender sets the email sender.
func WithSender(sender mail.Sender) Option {
	return func(s *Service) {
		if sender != nil {
			s.sender = sender
		}
	}
}

// WithMailIdentity sets the brand and from address used in emails.
func WithMailIdentity(brand, from string) Option {
	return func(s *Service) {
		s.mailOpts = append(s.mailOpts, mail.WithBrand(brand), mail.WithFrom(from))
	}
}

// WithQueueSize bounds the email queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of email workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithMaxLeadsLimit caps how many leads one listing may return.
func WithMaxLeadsLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLeadsLimit = n
		}
	}
}
