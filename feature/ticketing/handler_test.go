package ticketing_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"ticketing-sync/core/database"
	"ticketing-sync/core/loader"
	"ticketing-sync/feature/ticketing"
	"ticketing-sync/feature/ticketing/models"
	"ticketing-sync/feature/ticketing/providers/factory"
	"ticketing-sync/feature/ticketing/store"
	"ticketing-sync/feature/ticketing/synchronizer"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Synchronize(ctx context.Context, organizationID string) (*synchronizer.Report, error) {
	args := m.Called(ctx, organizationID)
	report, _ := args.Get(0).(*synchronizer.Report)
	return report, args.Error(1)
}

func (m *mockRunner) TestConnection(ctx context.Context, systemID string) (bool, error) {
	args := m.Called(ctx, systemID)
	return args.Bool(0), args.Error(1)
}

func setupApp(t *testing.T, runner *mockRunner) (*fiber.App, *store.Store) {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	st := store.New(db, zap.NewNop())
	require.NoError(t, st.Migrate(context.Background()))

	app := fiber.New()
	mgr := loader.NewManager()
	mgr.Register(ticketing.NewFeature(runner, st, zap.NewNop()))
	require.NoError(t, mgr.LoadAll(app))
	return app, st
}

func decode(t *testing.T, body io.Reader, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(body).Decode(out))
}

func TestFeature(t *testing.T) {
	f := ticketing.NewFeature(&mockRunner{}, nil, zap.NewNop())
	assert.Equal(t, "ticketing", f.Name())
	assert.True(t, f.IsEnabled())
	assert.NoError(t, f.Load(fiber.New()))
}

func TestHandleSynchronize(t *testing.T) {
	runner := &mockRunner{}
	app, _ := setupApp(t, runner)

	report := &synchronizer.Report{
		OrganizationID: "org-1",
		Connections: []synchronizer.ConnectionReport{
			{TicketingSystemID: "ts-1", Provider: models.ProviderMapado, Status: synchronizer.StatusSucceeded, Phase: synchronizer.PhaseCommitted},
			{TicketingSystemID: "ts-2", Provider: models.ProviderShotgun, Status: synchronizer.StatusFailed, Phase: synchronizer.PhaseFailed, FailedAt: synchronizer.PhaseFetching, Error: "boom"},
		},
	}
	runner.On("Synchronize", mock.Anything, "org-1").Return(report, errors.New("boom"))

	resp, err := app.Test(httptest.NewRequest("POST", "/organizations/org-1/synchronize", nil), 2000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got synchronizer.Report
	decode(t, resp.Body, &got)
	assert.Equal(t, "org-1", got.OrganizationID)
	require.Len(t, got.Connections, 2)
	assert.Equal(t, synchronizer.PhaseFetching, got.Connections[1].FailedAt)
	assert.Equal(t, 1, got.Failed())
	runner.AssertExpectations(t)
}

func TestHandleSynchronize_InProgress(t *testing.T) {
	runner := &mockRunner{}
	app, _ := setupApp(t, runner)
	runner.On("Synchronize", mock.Anything, "org-1").Return(nil, synchronizer.ErrSynchronizationInProgress)

	resp, err := app.Test(httptest.NewRequest("POST", "/organizations/org-1/synchronize", nil), 2000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestHandleSynchronize_Error(t *testing.T) {
	runner := &mockRunner{}
	app, _ := setupApp(t, runner)
	runner.On("Synchronize", mock.Anything, "org-1").Return(nil, errors.New("database unreachable"))

	resp, err := app.Test(httptest.NewRequest("POST", "/organizations/org-1/synchronize", nil), 2000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var body map[string]string
	decode(t, resp.Body, &body)
	assert.Equal(t, "database unreachable", body["error"])
}

func TestHandleListTicketingSystems(t *testing.T) {
	runner := &mockRunner{}
	app, st := setupApp(t, runner)

	secret := "secret"
	for _, s := range []*models.TicketingSystem{
		{OrganizationID: "org-1", Name: models.ProviderShotgun, APIAccessKey: "a", APISecretKey: &secret},
		{OrganizationID: "org-1", Name: models.ProviderMapado, APIAccessKey: "b"},
		{OrganizationID: "org-2", Name: models.ProviderBilletweb, APIAccessKey: "c"},
	} {
		require.NoError(t, st.DB().Create(s).Error)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/organizations/org-1/ticketing-systems", nil), 2000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")

	var got []map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Len(t, got, 2)
	assert.Equal(t, models.ProviderMapado, got[0]["name"])
	assert.Equal(t, models.ProviderShotgun, got[1]["name"])
	assert.Contains(t, got[0], "last_synchronization_at")
}

func TestHandleTestConnection(t *testing.T) {
	runner := &mockRunner{}
	app, _ := setupApp(t, runner)
	runner.On("TestConnection", mock.Anything, "ts-ok").Return(true, nil)
	runner.On("TestConnection", mock.Anything, "ts-bad").Return(false, nil)
	runner.On("TestConnection", mock.Anything, "ts-missing").Return(false, store.ErrTicketingSystemNotFound)
	runner.On("TestConnection", mock.Anything, "ts-unknown").Return(false, &factory.UnsupportedProviderError{Name: "ticketmaster"})

	tests := []struct {
		id        string
		status    int
		connected bool
	}{
		{"ts-ok", fiber.StatusOK, true},
		{"ts-bad", fiber.StatusOK, false},
		{"ts-missing", fiber.StatusNotFound, false},
		{"ts-unknown", fiber.StatusUnprocessableEntity, false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("POST", "/ticketing-systems/"+tt.id+"/test", nil), 2000)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.status == fiber.StatusOK {
				var got ticketing.ConnectionStatus
				decode(t, resp.Body, &got)
				assert.Equal(t, tt.connected, got.Connected)
			}
		})
	}
}
