package solutions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shydevcorp/codejeet/internal/storage/models"
)

type fakeProvider struct {
	gen   *Generation
	err   error
	calls int
}

func (f *fakeProvider) Generate(ctx context.Context, questionID int) (*Generation, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.gen, nil
}

type fakeCache struct {
	entries  map[int]string
	getErr   error
	setErr   error
	lastTTL  time.Duration
	setCalls int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[int]string)}
}

func (f *fakeCache) GetSolution(ctx context.Context, questionID int) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	solution, ok := f.entries[questionID]
	return solution, ok, nil
}

func (f *fakeCache) SetSolution(ctx context.Context, questionID int, solution string, ttl time.Duration) error {
	f.setCalls++
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[questionID] = solution
	f.lastTTL = ttl
	return nil
}

type fakeAudit struct {
	rows []models.SolutionRequest
	err  error
}

func (f *fakeAudit) InsertSolutionRequest(ctx context.Context, req models.SolutionRequest) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, req)
	return nil
}

func TestSolutionCacheHitSkipsProvider(t *testing.T) {
	provider := &fakeProvider{}
	cache := newFakeCache()
	cache.entries[1] = "class Solution {}"

	svc := NewService(provider, cache, nil, time.Hour)

	solution, err := svc.Solution(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "class Solution {}", solution)
	assert.Zero(t, provider.calls)
}

func TestSolutionMissGeneratesAndCaches(t *testing.T) {
	provider := &fakeProvider{gen: &Generation{
		Content:          "class Solution {}",
		Model:            "gpt-4o-mini",
		PromptTokens:     20,
		CompletionTokens: 150,
	}}
	cache := newFakeCache()
	audit := &fakeAudit{}

	svc := NewService(provider, cache, audit, time.Hour)

	solution, err := svc.Solution(context.Background(), 146)
	require.NoError(t, err)
	assert.Equal(t, "class Solution {}", solution)
	assert.Equal(t, 1, provider.calls)

	assert.Equal(t, "class Solution {}", cache.entries[146])
	assert.Equal(t, time.Hour, cache.lastTTL)

	require.Len(t, audit.rows, 1)
	row := audit.rows[0]
	assert.NotEmpty(t, row.ID)
	assert.Equal(t, 146, row.QuestionID)
	assert.Equal(t, "gpt-4o-mini", row.Model)
	assert.Equal(t, 20, row.PromptTokens)
	assert.Equal(t, 150, row.CompletionTokens)
}

func TestSolutionProviderErrorPropagates(t *testing.T) {
	provider := &fakeProvider{err: errors.New("rate limited")}
	svc := NewService(provider, nil, nil, time.Hour)

	_, err := svc.Solution(context.Background(), 1)
	assert.Error(t, err)
}

func TestSolutionToleratesCacheFailures(t *testing.T) {
	provider := &fakeProvider{gen: &Generation{Content: "ok"}}
	cache := newFakeCache()
	cache.getErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")

	svc := NewService(provider, cache, nil, time.Hour)

	solution, err := svc.Solution(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "ok", solution)
}

func TestSolutionToleratesAuditFailure(t *testing.T) {
	provider := &fakeProvider{gen: &Generation{Content: "ok"}}
	audit := &fakeAudit{err: errors.New("table missing")}

	svc := NewService(provider, nil, audit, time.Hour)

	solution, err := svc.Solution(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "ok", solution)
}

func TestNewServiceDefaultTTL(t *testing.T) {
	svc := NewService(&fakeProvider{}, nil, nil, 0)
	assert.Equal(t, 24*time.Hour, svc.cacheTTL)
}
