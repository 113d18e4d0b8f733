package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dispatchsim/dispatchsim/sim/scenario"
)

func TestValidateScenario(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, validateScenario(scenarioA, &out))
	assert.Contains(t, out.String(), "OK (2 nodes, 1 vehicles, 2 warehouses, 1 events: 1 arrivals")

	assert.Error(t, validateScenario("missing.txt", &out))
}

func TestConvertScenario_RoundTrips(t *testing.T) {
	// GIVEN the text scenario converted to YAML on disk
	dest := filepath.Join(t.TempDir(), "a.yaml")
	require.NoError(t, convertScenario(scenarioA, dest, nil))

	// WHEN both are loaded
	orig, err := scenario.Load(scenarioA)
	require.NoError(t, err)
	conv, err := scenario.Load(dest)
	require.NoError(t, err)

	// THEN they describe the same world
	assert.Equal(t, orig.Matrix, conv.Matrix)
	assert.Equal(t, orig.Vehicles, conv.Vehicles)
	assert.Equal(t, orig.Warehouses, conv.Warehouses)
	assert.Equal(t, orig.Events, conv.Events)
}

func TestNewServer_ServesState(t *testing.T) {
	srv, err := newServer(&RunConfig{Scenario: scenarioA, FastForward: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/state", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"clock":0`)
}
