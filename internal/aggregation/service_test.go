package aggregation

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/fraghub/metrics-api/internal/models"
	"github.com/fraghub/metrics-api/internal/roles"
)

type fakeSource struct {
	playerMatches []models.MatchRecord
	teamMatches   []models.TeamMatchRecord
	err           error
	calls         int
}

func (f *fakeSource) PlayerMatches(ctx context.Context, steamID string, filter SourceFilter) ([]models.MatchRecord, error) {
	f.calls++
	return f.playerMatches, f.err
}

func (f *fakeSource) TeamMatches(ctx context.Context, teamID string, filter SourceFilter) ([]models.TeamMatchRecord, error) {
	f.calls++
	return f.teamMatches, f.err
}

func (f *fakeSource) ActivePlayers(ctx context.Context) ([]string, error) { return nil, nil }
func (f *fakeSource) ActiveTeams(ctx context.Context) ([]string, error)  { return nil, nil }

type fakePeers struct {
	peers []models.PeerSummary
	err   error
}

func (f *fakePeers) PeerSummaries(ctx context.Context, filter SourceFilter) ([]models.PeerSummary, error) {
	return f.peers, f.err
}

type fakeCache struct {
	players map[string]*models.AggregatedPlayerProfile
	teams   map[string]*models.AggregatedTeamProfile
	broken  bool
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		players: make(map[string]*models.AggregatedPlayerProfile),
		teams:   make(map[string]*models.AggregatedTeamProfile),
	}
}

func (f *fakeCache) GetPlayerProfile(ctx context.Context, key string) (*models.AggregatedPlayerProfile, bool) {
	if f.broken {
		return nil, false
	}
	p, ok := f.players[key]
	return p, ok
}

func (f *fakeCache) SetPlayerProfile(ctx context.Context, key string, p *models.AggregatedPlayerProfile) bool {
	if f.broken {
		return false
	}
	f.players[key] = p
	f.sets++
	return true
}

func (f *fakeCache) GetTeamProfile(ctx context.Context, key string) (*models.AggregatedTeamProfile, bool) {
	if f.broken {
		return nil, false
	}
	p, ok := f.teams[key]
	return p, ok
}

func (f *fakeCache) SetTeamProfile(ctx context.Context, key string, p *models.AggregatedTeamProfile) bool {
	if f.broken {
		return false
	}
	f.teams[key] = p
	f.sets++
	return true
}

func newTestService(source *fakeSource, peers *fakePeers, cache *fakeCache) Service {
	cfg := DefaultConfig()
	return NewService(
		NewPlayerAggregator(cfg, roles.NewClassifier(roles.DefaultConfig())),
		NewTeamAggregator(cfg),
		source, peers, cache,
		zap.NewNop(),
	)
}

func TestServicePlayerProfileComputeThenCache(t *testing.T) {
	source := &fakeSource{playerMatches: []models.MatchRecord{match("m1", 0, "de_mirage", 1.05, true)}}
	cache := newFakeCache()
	svc := newTestService(source, &fakePeers{}, cache)

	p, err := svc.PlayerProfile(context.Background(), "7656_PLAYER", "all_time", false)
	if err != nil {
		t.Fatal(err)
	}
	if p.SteamID != "7656_PLAYER" {
		t.Fatalf("steam id = %s", p.SteamID)
	}
	if cache.sets != 1 {
		t.Fatalf("cache sets = %d, want 1", cache.sets)
	}

	// Second call hits the cache, not the source.
	if _, err := svc.PlayerProfile(context.Background(), "7656_PLAYER", "all_time", false); err != nil {
		t.Fatal(err)
	}
	if source.calls != 1 {
		t.Errorf("source calls = %d, want 1", source.calls)
	}
}

func TestServiceForceBypassesCache(t *testing.T) {
	source := &fakeSource{playerMatches: []models.MatchRecord{match("m1", 0, "de_mirage", 1.05, true)}}
	cache := newFakeCache()
	svc := newTestService(source, &fakePeers{}, cache)

	if _, err := svc.PlayerProfile(context.Background(), "7656_PLAYER", "all_time", false); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.PlayerProfile(context.Background(), "7656_PLAYER", "all_time", true); err != nil {
		t.Fatal(err)
	}
	if source.calls != 2 {
		t.Errorf("source calls = %d, want 2", source.calls)
	}
}

func TestServiceCacheOutageStillComputes(t *testing.T) {
	source := &fakeSource{playerMatches: []models.MatchRecord{match("m1", 0, "de_mirage", 1.05, true)}}
	cache := newFakeCache()
	cache.broken = true
	svc := newTestService(source, &fakePeers{}, cache)

	if _, err := svc.PlayerProfile(context.Background(), "7656_PLAYER", "all_time", false); err != nil {
		t.Fatalf("cache outage should not fail the computation: %v", err)
	}
}

func TestServicePeerStoreFailureDegrades(t *testing.T) {
	source := &fakeSource{playerMatches: []models.MatchRecord{match("m1", 0, "de_mirage", 1.05, true)}}
	peers := &fakePeers{err: errors.New("peer store down")}
	svc := newTestService(source, peers, newFakeCache())

	p, err := svc.PlayerProfile(context.Background(), "7656_PLAYER", "all_time", false)
	if err != nil {
		t.Fatal(err)
	}
	if p.Percentiles.Rating != 50 || p.Percentiles.PeerCount != 0 {
		t.Errorf("percentiles = %+v, want median defaults", p.Percentiles)
	}
}

func TestServiceNoMatchesSurfacesNotFound(t *testing.T) {
	svc := newTestService(&fakeSource{}, &fakePeers{}, newFakeCache())

	if _, err := svc.PlayerProfile(context.Background(), "7656_PLAYER", "all_time", false); !errors.Is(err, ErrNoMatches) {
		t.Fatalf("error = %v, want ErrNoMatches", err)
	}
	if _, err := svc.TeamProfile(context.Background(), "team-1", "all_time", false); !errors.Is(err, ErrNoMatches) {
		t.Fatalf("error = %v, want ErrNoMatches", err)
	}
}

func TestServiceRejectsUnknownWindow(t *testing.T) {
	svc := newTestService(&fakeSource{}, &fakePeers{}, newFakeCache())

	if _, err := svc.PlayerProfile(context.Background(), "7656_PLAYER", "fortnight", false); !errors.Is(err, ErrUnknownWindow) {
		t.Fatalf("error = %v, want ErrUnknownWindow", err)
	}
}

func TestProfileKeys(t *testing.T) {
	if got := PlayerProfileKey("7656", "last_30d"); got != "aggregation:player:7656:last_30d" {
		t.Errorf("player key = %s", got)
	}
	if got := TeamProfileKey("t1", "all_time"); got != "aggregation:team:t1:all_time" {
		t.Errorf("team key = %s", got)
	}
}
