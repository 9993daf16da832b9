package aggregation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fraghub/metrics-api/internal/models"
)

// SourceFilter is the resolved window handed to the data source. At most one
// of MatchLimit and DateCutoff is set.
type SourceFilter struct {
	MatchLimit int
	DateCutoff *time.Time
}

// MatchSource supplies already-filtered, metric-bearing match sets. The
// aggregator never issues raw queries itself.
type MatchSource interface {
	PlayerMatches(ctx context.Context, steamID string, filter SourceFilter) ([]models.MatchRecord, error)
	TeamMatches(ctx context.Context, teamID string, filter SourceFilter) ([]models.TeamMatchRecord, error)
	ActivePlayers(ctx context.Context) ([]string, error)
	ActiveTeams(ctx context.Context) ([]string, error)
}

// PeerStore supplies the precomputed peer population for percentile ranking.
type PeerStore interface {
	PeerSummaries(ctx context.Context, filter SourceFilter) ([]models.PeerSummary, error)
}

// ProfileCache memoizes produced profiles. Absence and errors both read as a
// miss; writes are best-effort.
type ProfileCache interface {
	GetPlayerProfile(ctx context.Context, key string) (*models.AggregatedPlayerProfile, bool)
	SetPlayerProfile(ctx context.Context, key string, profile *models.AggregatedPlayerProfile) bool
	GetTeamProfile(ctx context.Context, key string) (*models.AggregatedTeamProfile, bool)
	SetTeamProfile(ctx context.Context, key string, profile *models.AggregatedTeamProfile) bool
}

// Service is the aggregation entrypoint: resolve window, fetch, compute,
// cache. Compute-then-cache, never cache-as-source-of-truth.
type Service interface {
	PlayerProfile(ctx context.Context, steamID, window string, force bool) (*models.AggregatedPlayerProfile, error)
	TeamProfile(ctx context.Context, teamID, window string, force bool) (*models.AggregatedTeamProfile, error)
	ActivePlayers(ctx context.Context) ([]string, error)
	ActiveTeams(ctx context.Context) ([]string, error)
}

type service struct {
	players *PlayerAggregator
	teams   *TeamAggregator
	source  MatchSource
	peers   PeerStore
	cache   ProfileCache
	logger  *zap.SugaredLogger
}

func NewService(players *PlayerAggregator, teams *TeamAggregator, source MatchSource, peers PeerStore, cache ProfileCache, logger *zap.Logger) Service {
	return &service{
		players: players,
		teams:   teams,
		source:  source,
		peers:   peers,
		cache:   cache,
		logger:  logger.Sugar(),
	}
}

// PlayerProfileKey builds the cache key for a player profile.
func PlayerProfileKey(steamID, window string) string {
	return fmt.Sprintf("aggregation:player:%s:%s", steamID, window)
}

// TeamProfileKey builds the cache key for a team profile.
func TeamProfileKey(teamID, window string) string {
	return fmt.Sprintf("aggregation:team:%s:%s", teamID, window)
}

func (s *service) PlayerProfile(ctx context.Context, steamID, window string, force bool) (*models.AggregatedPlayerProfile, error) {
	period, err := ResolvePeriod(window, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	key := PlayerProfileKey(steamID, period.Name)
	if !force && s.cache != nil {
		if cached, ok := s.cache.GetPlayerProfile(ctx, key); ok {
			return cached, nil
		}
	}

	filter := SourceFilter{MatchLimit: period.MatchLimit, DateCutoff: period.DateCutoff}

	var matches []models.MatchRecord
	var peers []models.PeerSummary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		matches, err = s.source.PlayerMatches(gctx, steamID, filter)
		if err != nil {
			return fmt.Errorf("fetch matches for %s: %w", steamID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		peers, err = s.peers.PeerSummaries(gctx, filter)
		if err != nil {
			// The profile degrades to median percentiles without peers.
			s.logger.Warnw("Peer population unavailable", "steam_id", steamID, "error", err)
			peers = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	profile, err := s.players.Aggregate(steamID, period, matches, peers)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && !s.cache.SetPlayerProfile(ctx, key, profile) {
		s.logger.Warnw("Profile cache write failed", "key", key)
	}

	s.logger.Infow("Aggregated player profile",
		"steam_id", steamID,
		"window", period.Name,
		"matches", profile.Period.Matches,
		"rating", profile.Performance.AvgRating,
	)
	return profile, nil
}

func (s *service) TeamProfile(ctx context.Context, teamID, window string, force bool) (*models.AggregatedTeamProfile, error) {
	period, err := ResolvePeriod(window, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	key := TeamProfileKey(teamID, period.Name)
	if !force && s.cache != nil {
		if cached, ok := s.cache.GetTeamProfile(ctx, key); ok {
			return cached, nil
		}
	}

	filter := SourceFilter{MatchLimit: period.MatchLimit, DateCutoff: period.DateCutoff}
	matches, err := s.source.TeamMatches(ctx, teamID, filter)
	if err != nil {
		return nil, fmt.Errorf("fetch matches for team %s: %w", teamID, err)
	}

	profile, err := s.teams.Aggregate(teamID, period, matches)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && !s.cache.SetTeamProfile(ctx, key, profile) {
		s.logger.Warnw("Profile cache write failed", "key", key)
	}

	s.logger.Infow("Aggregated team profile",
		"team_id", teamID,
		"window", period.Name,
		"matches", profile.Period.Matches,
	)
	return profile, nil
}

func (s *service) ActivePlayers(ctx context.Context) ([]string, error) {
	return s.source.ActivePlayers(ctx)
}

func (s *service) ActiveTeams(ctx context.Context) ([]string, error) {
	return s.source.ActiveTeams(ctx)
}
