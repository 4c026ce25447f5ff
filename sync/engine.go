// ABOUTME: Wires resolvers, promoter, replicator and sweeper from one store and client
// ABOUTME: Functional options cover logger, warm-lead label, clock and sweep concurrency
package sync

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/harperreed/leadsync/crm"
)

type Engine struct {
	Labels        *LabelResolver
	Organizations *OrganizationResolver
	Owners        *OwnerResolver
	Promoter      *Promoter
	Replicator    *Replicator
	Sweeper       *Sweeper
}

type engineOptions struct {
	logger        *log.Logger
	warmLeadLabel string
	now           func() time.Time
	concurrency   int
}

type Option func(*engineOptions)

func WithLogger(logger *log.Logger) Option {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithWarmLeadLabel sets the label applied to promoted persons.
func WithWarmLeadLabel(name string) Option {
	return func(o *engineOptions) {
		if name != "" {
			o.warmLeadLabel = name
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *engineOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithConcurrency bounds parallel tasks in a sweep.
func WithConcurrency(n int) Option {
	return func(o *engineOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// NewEngine builds the sync components. cache may be nil.
func NewEngine(store Store, client crm.Client, cache Cache, opts ...Option) *Engine {
	o := engineOptions{
		logger:        log.Default(),
		warmLeadLabel: crm.DefaultWarmLeadLabel,
		now:           time.Now,
		concurrency:   DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(&o)
	}

	labels := NewLabelResolver(client, cache, o.logger.WithPrefix("labels"))
	orgs := NewOrganizationResolver(store, client, o.logger.WithPrefix("orgs"))
	owners := NewOwnerResolver(store, client, cache, o.logger.WithPrefix("owners"))

	promoter := &Promoter{
		store:         store,
		client:        client,
		labels:        labels,
		orgs:          orgs,
		owners:        owners,
		warmLeadLabel: o.warmLeadLabel,
		now:           o.now,
		logger:        o.logger.WithPrefix("promote"),
	}

	replicator := &Replicator{
		store:  store,
		client: client,
		now:    o.now,
		logger: o.logger.WithPrefix("replicate"),
	}

	sweeper := &Sweeper{
		store:       store,
		promoter:    promoter,
		replicator:  replicator,
		concurrency: o.concurrency,
		logger:      o.logger.WithPrefix("sweep"),
	}

	return &Engine{
		Labels:        labels,
		Organizations: orgs,
		Owners:        owners,
		Promoter:      promoter,
		Replicator:    replicator,
		Sweeper:       sweeper,
	}
}
