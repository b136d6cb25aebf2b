package prepwise

import (
	"errors"

	"github.com/MrEthical07/prepwise/internal/logging"
	"github.com/MrEthical07/prepwise/profile"
)

// Builder assembles an Engine. A Builder can be used for one Build only.
type Builder struct {
	config Config

	verifier  CredentialVerifier
	profiles  profile.Store
	auditSink AuditSink
	logger    logging.Logger

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithVerifier sets the identity platform. Required.
func (b *Builder) WithVerifier(v CredentialVerifier) *Builder {
	b.verifier = v
	return b
}

// WithProfileStore sets the profile document store. Required.
func (b *Builder) WithProfileStore(s profile.Store) *Builder {
	b.profiles = s
	return b
}

// WithAuditSink sets the audit destination and turns auditing on.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = sink != nil
	return b
}

func (b *Builder) WithLogger(l logging.Logger) *Builder {
	b.logger = l
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and starts the audit dispatcher when
// auditing is enabled.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.verifier == nil {
		return nil, errors.New("credential verifier required")
	}
	if b.profiles == nil {
		return nil, errors.New("profile store required")
	}

	logger := b.logger
	if logger == nil {
		logger = logging.Discard()
	}

	e := &Engine{
		config:   cfg,
		verifier: b.verifier,
		profiles: b.profiles,
		logger:   logger.With("module", "engine"),
		metrics:  NewMetrics(cfg.Metrics),
		audit:    newAuditDispatcher(cfg.Audit, b.auditSink),
	}
	e.flowDeps = e.buildFlowDeps()

	b.built = true
	return e, nil
}
