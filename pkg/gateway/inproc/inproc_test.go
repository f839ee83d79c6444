package inproc_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/flowdeck/flowdeck/pkg/deployflow"
	"github.com/flowdeck/flowdeck/pkg/eventbus"
	"github.com/flowdeck/flowdeck/pkg/gateway"
	"github.com/flowdeck/flowdeck/pkg/gateway/inproc"
	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/persistence/file"
	"github.com/flowdeck/flowdeck/pkg/services"
	"github.com/flowdeck/flowdeck/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func setupSession(t *testing.T) (*session.Session, *file.Persistence) {
	t.Helper()

	persistence := file.NewPersistence(t.TempDir())
	bus := eventbus.NewGoChannelEventBus(testLogger())
	deployments := services.NewDeployments(persistence, bus)
	runs := services.NewRuns(persistence)

	gw := inproc.NewGateway(deployments, runs, nil)

	s, err := session.New(session.Config{
		WorkflowID: "wf-1",
		BaseURL:    "https://flowdeck.example",
		Gateway:    gw,
		EventBus:   bus,
		Logger:     testLogger(),
	})
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	return s, persistence
}

func draft() *models.Workflow {
	return &models.Workflow{
		ID:   "wf-1",
		Name: "Invoice pipeline",
		Nodes: []*models.WorkflowNode{
			{ID: "n1", Type: "http_request", Category: models.CategoryTypeAction, Enabled: true},
		},
	}
}

// Deploying through the publish dialog must land in the version panel via the
// published lifecycle event, without an explicit refresh.
func TestDeployRoundTrip(t *testing.T) {
	s, _ := setupSession(t)
	ctx := context.Background()

	require.NoError(t, s.Flow.Open(models.TargetWebapp))
	s.Flow.SetDescription("first release")
	require.NoError(t, s.Flow.Submit(ctx, draft()))

	require.Eventually(t, func() bool {
		return s.Flow.State() == deployflow.StateSuccess
	}, time.Second, time.Millisecond)

	result := s.Flow.Result()
	require.NotNil(t, result)
	assert.Equal(t, int64(1), result.Version)
	assert.Equal(t, "https://flowdeck.example/app/"+result.URLSlug, result.ShareURL)

	require.Eventually(t, func() bool {
		return len(s.Versions.Deployments()) == 1
	}, time.Second, time.Millisecond)

	deployment := s.Versions.Deployments()[0]
	assert.Equal(t, "first release", deployment.Description)
	assert.True(t, deployment.Active)
}

func TestMutationsGoThroughTypedErrors(t *testing.T) {
	s, _ := setupSession(t)
	ctx := context.Background()

	err := s.ToggleDeployment(ctx, "missing-deployment")
	require.Error(t, err)

	var gwErr *gateway.Error
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, gateway.KindMutation, gwErr.Kind)
}

func TestRunHistoryThroughGateway(t *testing.T) {
	s, persistence := setupSession(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-1", "run-2", "run-3"} {
		require.NoError(t, persistence.RunRepository().Save(ctx, &models.Run{
			ID:         id,
			WorkflowID: "wf-1",
			Status:     models.RunStatusSuccess,
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			Tokens:     int64(100 * (i + 1)),
		}))
	}

	listed, err := s.Runs.List(ctx, models.RunQuery{SortKey: models.RunSortTokens, SortOrder: models.SortAsc})
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "run-1", listed[0].ID)

	s.Selector.ToggleOpen()
	s.Selector.SelectFromList(listed[0])
	s.Selector.SelectFromList(listed[2])

	a, b, err := s.Selector.Compare()
	require.NoError(t, err)
	assert.Equal(t, "run-1", a.ID)
	assert.Equal(t, "run-3", b.ID)
}
