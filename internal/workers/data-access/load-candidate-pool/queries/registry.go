package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"connector-workers/internal/common/config"
	"connector-workers/internal/models"
)

var (
	ErrUnknownSource     = errors.New("unknown candidate pool source")
	ErrSourceUnavailable = errors.New("candidate pool source not configured")
	ErrMissingRoles      = errors.New("at least one role is required")
)

// PoolQuery selects the profiles whose stored role is one of Roles,
// excluding the requester.
type PoolQuery struct {
	RequesterID string
	Roles       []string
	Limit       int
}

type Result struct {
	Profiles []models.UserProfile
	Took     int64 // milliseconds
}

// Sources holds the backends a pool can be loaded from. Either may be nil.
type Sources struct {
	DB           *sql.DB
	ES           *elasticsearch.Client
	ProfileIndex string
}

func Execute(ctx context.Context, src Sources, source string, q PoolQuery) (*Result, error) {
	if len(q.Roles) == 0 {
		return nil, ErrMissingRoles
	}

	switch source {
	case config.PoolSourcePostgres:
		if src.DB == nil {
			return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, source)
		}
		return FromPostgres(ctx, src.DB, q)
	case config.PoolSourceElasticsearch:
		if src.ES == nil {
			return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, source)
		}
		return FromElasticsearch(ctx, src.ES, src.ProfileIndex, q)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, source)
	}
}
