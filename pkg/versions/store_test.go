package versions

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// gatedFetcher serves one prepared response per call, each released by its
// own gate channel so tests control resolution order.
type gatedFetcher struct {
	mu        sync.Mutex
	responses []gatedResponse
	calls     int
}

type gatedResponse struct {
	gate        chan struct{}
	deployments []*models.Deployment
	err         error
}

func (f *gatedFetcher) FetchDeployments(_ context.Context, _ string) ([]*models.Deployment, error) {
	f.mu.Lock()
	response := f.responses[f.calls]
	f.calls++
	f.mu.Unlock()

	if response.gate != nil {
		<-response.gate
	}

	return response.deployments, response.err
}

func deployment(id string, version int64) *models.Deployment {
	return &models.Deployment{
		ID:         id,
		WorkflowID: "wf-1",
		Version:    version,
		Target:     models.TargetAPI,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestPreviewExclusivity(t *testing.T) {
	store := NewStore(&gatedFetcher{}, "wf-1", testLogger())

	assert.False(t, store.IsPreviewing())
	assert.Nil(t, store.ActiveDeployment())

	first := deployment("dep-1", 1)
	second := deployment("dep-2", 2)

	store.PreviewVersion(first)
	assert.True(t, store.IsPreviewing())
	assert.Equal(t, "dep-1", store.ActiveDeployment().ID)

	// Selecting another version atomically replaces the previous one.
	store.PreviewVersion(second)
	assert.Equal(t, "dep-2", store.ActiveDeployment().ID)

	store.ExitPreview()
	assert.False(t, store.IsPreviewing())

	// Idempotent.
	store.ExitPreview()
	assert.False(t, store.IsPreviewing())
	assert.Nil(t, store.ActiveDeployment())
}

func TestListDeploymentsSortsByVersionDescending(t *testing.T) {
	fetcher := &gatedFetcher{responses: []gatedResponse{
		{deployments: []*models.Deployment{deployment("a", 1), deployment("c", 3), deployment("b", 2)}},
	}}
	store := NewStore(fetcher, "wf-1", testLogger())

	listed, err := store.ListDeployments(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, int64(3), listed[0].Version)
	assert.Equal(t, int64(2), listed[1].Version)
	assert.Equal(t, int64(1), listed[2].Version)
}

func TestListDeploymentsFailureLeavesPreviewUntouched(t *testing.T) {
	fetchErr := errors.New("backend unavailable")
	fetcher := &gatedFetcher{responses: []gatedResponse{
		{deployments: []*models.Deployment{deployment("a", 1)}},
		{err: fetchErr},
	}}
	store := NewStore(fetcher, "wf-1", testLogger())

	_, err := store.ListDeployments(context.Background())
	require.NoError(t, err)

	previewed := deployment("a", 1)
	store.PreviewVersion(previewed)

	listed, err := store.ListDeployments(context.Background())
	require.Error(t, err)
	assert.Empty(t, listed)
	assert.Error(t, store.LastError())

	// A failed refresh must never silently exit preview mode.
	assert.True(t, store.IsPreviewing())
	assert.Equal(t, previewed.ID, store.ActiveDeployment().ID)
}

func TestListDeploymentsStaleFetchGuard(t *testing.T) {
	firstGate := make(chan struct{})
	secondGate := make(chan struct{})

	fetcher := &gatedFetcher{responses: []gatedResponse{
		{gate: firstGate, deployments: []*models.Deployment{deployment("old", 1)}},
		{gate: secondGate, deployments: []*models.Deployment{deployment("old", 1), deployment("new", 2)}},
	}}
	store := NewStore(fetcher, "wf-1", testLogger())

	ctx := context.Background()

	firstDone := make(chan []*models.Deployment, 1)
	secondDone := make(chan []*models.Deployment, 1)

	go func() {
		listed, _ := store.ListDeployments(ctx)
		firstDone <- listed
	}()

	// Wait for the first call to be in flight before issuing the second.
	require.Eventually(t, func() bool {
		fetcher.mu.Lock()
		defer fetcher.mu.Unlock()

		return fetcher.calls == 1
	}, time.Second, time.Millisecond)

	go func() {
		listed, _ := store.ListDeployments(ctx)
		secondDone <- listed
	}()

	require.Eventually(t, func() bool {
		fetcher.mu.Lock()
		defer fetcher.mu.Unlock()

		return fetcher.calls == 2
	}, time.Second, time.Millisecond)

	// Resolve the second (later-issued) call first, then the first.
	close(secondGate)
	second := <-secondDone
	close(firstGate)
	first := <-firstDone

	require.Len(t, second, 2)

	// The slow first response must have been discarded.
	assert.Len(t, first, 2)
	assert.Len(t, store.Deployments(), 2)
	assert.Equal(t, int64(2), store.Deployments()[0].Version)
}
