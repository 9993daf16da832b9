package source

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/fraghub/metrics-api/internal/aggregation"
	"github.com/fraghub/metrics-api/internal/models"
)

// minPeerMatches filters out rows too thin to rank against.
const minPeerMatches = 5

// PgPool is the slice of the pgx pool API the peer store uses.
type PgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PeerStore reads the precomputed peer population from Postgres. The rows
// are maintained by a separate rollup job, not by this service.
type PeerStore struct {
	pg     PgPool
	logger *zap.SugaredLogger
}

func NewPeerStore(pg PgPool, logger *zap.Logger) *PeerStore {
	return &PeerStore{pg: pg, logger: logger.Sugar()}
}

func (s *PeerStore) PeerSummaries(ctx context.Context, filter aggregation.SourceFilter) ([]models.PeerSummary, error) {
	query := `
		SELECT steam_id, avg_rating, avg_kast, avg_adr, avg_kd, matches
		FROM peer_summaries
		WHERE matches >= $1`
	args := []any{minPeerMatches}
	if filter.DateCutoff != nil {
		query += ` AND last_played_at >= $2`
		args = append(args, *filter.DateCutoff)
	}
	query += ` ORDER BY steam_id`

	rows, err := s.pg.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query peer summaries: %w", err)
	}
	defer rows.Close()

	var out []models.PeerSummary
	for rows.Next() {
		var p models.PeerSummary
		if err := rows.Scan(&p.SteamID, &p.AvgRating, &p.AvgKAST, &p.AvgADR, &p.AvgKD, &p.Matches); err != nil {
			return nil, fmt.Errorf("scan peer summary: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
