package cmd

import (
	"errors"
	"time"

	"github.com/spf13/viper"

	"github.com/complymap/complymap-cli/internal/analysis"
	"github.com/complymap/complymap-cli/internal/application/assessment"
	"github.com/complymap/complymap-cli/internal/cache"
	jsonrepo "github.com/complymap/complymap-cli/internal/infrastructure/persistence/json"
	"github.com/complymap/complymap-cli/internal/shared/constants"
)

const (
	jsonPrefix = ""
	jsonIndent = "  "
)

// newEngine wires the JSON-file repositories, the result cache and the
// assessment service from the resolved CLI configuration.
func newEngine() (*assessment.Service, error) {
	catalogRepo, err := jsonrepo.NewCatalogRepository(dataDir)
	if err != nil {
		return nil, err
	}
	assuranceRepo, err := jsonrepo.NewAssuranceRepository(dataDir, catalogRepo)
	if err != nil {
		return nil, err
	}

	ttl := viper.GetDuration("cache.ttl")
	if ttl <= 0 {
		ttl = constants.DefaultCacheTTL
	}
	staleTTL := viper.GetDuration("cache.stale_ttl")
	if staleTTL <= ttl {
		staleTTL = constants.DefaultCacheStaleTTL
	}
	if staleTTL <= ttl {
		staleTTL = ttl + time.Minute
	}

	return assessment.NewService(assessment.Config{
		Frameworks:  catalogRepo,
		Controls:    catalogRepo,
		Mappings:    catalogRepo,
		Chains:      assuranceRepo,
		Evidence:    assuranceRepo,
		Assessments: assuranceRepo,
		Cache:       cache.New(ttl, staleTTL, logger),
		Thresholds: analysis.Thresholds{
			Mapped:  viper.GetFloat64("analysis.mapped_threshold"),
			Partial: viper.GetFloat64("analysis.partial_threshold"),
		},
		Logger: logger,
	}), nil
}

// requireOrganization validates that an organization was supplied via
// --org or the config file before a compliance-aware command runs.
func requireOrganization() error {
	if organizationID == "" {
		return errors.New("organization is required (use --org or set organization in config)")
	}
	return nil
}
