package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fraghub/metrics-api/internal/models"
)

// stubService satisfies aggregation.Service with scripted outcomes.
type stubService struct {
	mu          sync.Mutex
	playerCalls []string
	teamCalls   []string
	failPlayers map[string]error
	delay       time.Duration
	players     []string
	teams       []string
}

func (s *stubService) PlayerProfile(ctx context.Context, steamID, window string, force bool) (*models.AggregatedPlayerProfile, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playerCalls = append(s.playerCalls, steamID)
	if err, ok := s.failPlayers[steamID]; ok {
		return nil, err
	}
	return &models.AggregatedPlayerProfile{SteamID: steamID}, nil
}

func (s *stubService) TeamProfile(ctx context.Context, teamID, window string, force bool) (*models.AggregatedTeamProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teamCalls = append(s.teamCalls, teamID)
	return &models.AggregatedTeamProfile{TeamID: teamID}, nil
}

func (s *stubService) ActivePlayers(ctx context.Context) ([]string, error) { return s.players, nil }
func (s *stubService) ActiveTeams(ctx context.Context) ([]string, error)   { return s.teams, nil }

func (s *stubService) playerCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.playerCalls)
}

func newTestPool(svc *stubService, opts ...func(*PoolConfig)) *Pool {
	cfg := PoolConfig{
		Concurrency:  1,
		QueueSize:    16,
		StallTimeout: time.Second,
		MaxStalled:   2,
		Service:      svc,
		Logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewPool(cfg)
}

func waitForState(t *testing.T, p *Pool, id uuid.UUID, state string) models.JobStatus {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if st, ok := p.Status(id); ok && st.State == state {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	st, _ := p.Status(id)
	t.Fatalf("job never reached state %s, last status %+v", state, st)
	return models.JobStatus{}
}

func TestEnqueueValidatesPayload(t *testing.T) {
	p := newTestPool(&stubService{})

	tests := []struct {
		name string
		job  *models.AggregationJob
	}{
		{"missing type", &models.AggregationJob{}},
		{"unknown type", &models.AggregationJob{Type: "rebuild-everything"}},
		{"update-player without steam id", &models.AggregationJob{Type: models.JobUpdatePlayer}},
		{"update-team without team id", &models.AggregationJob{Type: models.JobUpdateTeam}},
	}
	for _, tc := range tests {
		if _, err := p.Enqueue(tc.job); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestEnqueueFullQueueRejectsImmediately(t *testing.T) {
	p := newTestPool(&stubService{}, func(cfg *PoolConfig) { cfg.QueueSize = 1 })
	// Pool not started: nothing drains the queue.

	if _, err := p.Enqueue(&models.AggregationJob{Type: models.JobUpdatePlayer, SteamID: "a"}); err != nil {
		t.Fatalf("first enqueue failed: %v", err)
	}

	start := time.Now()
	_, err := p.Enqueue(&models.AggregationJob{Type: models.JobUpdatePlayer, SteamID: "b"})
	if err == nil {
		t.Fatal("expected rejection on full queue")
	}
	if time.Since(start) > 10*time.Millisecond {
		t.Errorf("rejection took %v, expected immediate return", time.Since(start))
	}
}

func TestUpdatePlayerJobCompletes(t *testing.T) {
	svc := &stubService{}
	p := newTestPool(svc)
	p.Start(context.Background())
	defer p.Stop()

	id, err := p.Enqueue(&models.AggregationJob{Type: models.JobUpdatePlayer, SteamID: "7656"})
	if err != nil {
		t.Fatal(err)
	}

	st := waitForState(t, p, id, models.JobStateCompleted)
	if st.Progress != 100 {
		t.Errorf("progress = %d, want 100", st.Progress)
	}
	if st.Result == nil || st.Result.PlayersUpdated != 1 {
		t.Errorf("result = %+v, want 1 player updated", st.Result)
	}
}

func TestBatchJobPartialFailure(t *testing.T) {
	svc := &stubService{failPlayers: map[string]error{"p2": errors.New("no matches")}}
	p := newTestPool(svc)
	p.Start(context.Background())
	defer p.Stop()

	id, err := p.Enqueue(&models.AggregationJob{
		Type:     models.JobBatchPlayers,
		SteamIDs: []string{"p1", "p2", "p3"},
	})
	if err != nil {
		t.Fatal(err)
	}

	st := waitForState(t, p, id, models.JobStateCompleted)
	if st.Result.PlayersUpdated != 2 {
		t.Errorf("players updated = %d, want 2", st.Result.PlayersUpdated)
	}
	if len(st.Result.Errors) != 1 || !strings.Contains(st.Result.Errors[0], "p2") {
		t.Errorf("errors = %v, want one error naming p2", st.Result.Errors)
	}
	// The failing item must not have stopped the remainder.
	if svc.playerCallCount() != 3 {
		t.Errorf("service calls = %d, want 3", svc.playerCallCount())
	}
}

func TestBatchJobAllItemsFailedIsFailed(t *testing.T) {
	svc := &stubService{failPlayers: map[string]error{
		"p1": errors.New("down"),
		"p2": errors.New("down"),
	}}
	p := newTestPool(svc)
	p.Start(context.Background())
	defer p.Stop()

	id, err := p.Enqueue(&models.AggregationJob{
		Type:     models.JobBatchPlayers,
		SteamIDs: []string{"p1", "p2"},
	})
	if err != nil {
		t.Fatal(err)
	}

	st := waitForState(t, p, id, models.JobStateFailed)
	if st.Error == "" {
		t.Error("failed job should carry an error message")
	}
}

func TestFullRecomputeCoversPlayersAndTeams(t *testing.T) {
	svc := &stubService{players: []string{"p1", "p2"}, teams: []string{"t1"}}
	p := newTestPool(svc)
	p.Start(context.Background())
	defer p.Stop()

	id, err := p.Enqueue(&models.AggregationJob{Type: models.JobFullRecompute})
	if err != nil {
		t.Fatal(err)
	}

	st := waitForState(t, p, id, models.JobStateCompleted)
	if st.Result.PlayersUpdated != 2 || st.Result.TeamsUpdated != 1 {
		t.Errorf("result = %+v, want 2 players and 1 team", st.Result)
	}
}

func TestStalledJobEventuallyFails(t *testing.T) {
	svc := &stubService{delay: 500 * time.Millisecond}
	p := newTestPool(svc, func(cfg *PoolConfig) {
		cfg.StallTimeout = 20 * time.Millisecond
		cfg.MaxStalled = 2
	})
	p.Start(context.Background())
	defer p.Stop()

	id, err := p.Enqueue(&models.AggregationJob{Type: models.JobUpdatePlayer, SteamID: "slow"})
	if err != nil {
		t.Fatal(err)
	}

	st := waitForState(t, p, id, models.JobStateFailed)
	if st.StallCount != 2 {
		t.Errorf("stall count = %d, want 2", st.StallCount)
	}
}

func TestRemoveOnlyQueuedJobs(t *testing.T) {
	p := newTestPool(&stubService{})
	// Pool not started so the job stays queued.

	id, err := p.Enqueue(&models.AggregationJob{Type: models.JobUpdatePlayer, SteamID: "7656"})
	if err != nil {
		t.Fatal(err)
	}
	if !p.Remove(id) {
		t.Fatal("removing a queued job should succeed")
	}
	if p.Remove(id) {
		t.Error("removing twice should fail")
	}
	if p.Remove(uuid.New()) {
		t.Error("removing an unknown job should fail")
	}
}

func TestGracefulStopFinishesInFlightJobs(t *testing.T) {
	svc := &stubService{delay: 50 * time.Millisecond}
	p := newTestPool(svc)
	p.Start(context.Background())

	id, err := p.Enqueue(&models.AggregationJob{Type: models.JobUpdatePlayer, SteamID: "7656"})
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond) // let the worker pick it up
	p.Stop()

	st, ok := p.Status(id)
	if !ok || st.State != models.JobStateCompleted {
		t.Errorf("status after stop = %+v, want completed", st)
	}
}
