package ware_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/warekit/testutil/helper"
	"github.com/AntonStoeckl/warekit/testutil/testdoubles"
	"github.com/AntonStoeckl/warekit/ware"
	"github.com/AntonStoeckl/warekit/ware/logging"
)

type serviceSettings struct {
	Name  string   `json:"name"`
	Port  int      `json:"port"`
	Hosts []string `json:"hosts"`
}

func Test_DumpJSONToEnv_LoadJSONFromEnv(t *testing.T) {
	helper.GivenProcessSinkSpy(t)
	t.Setenv("WAREKIT_SETTINGS", "")

	settings := serviceSettings{Name: "api", Port: 8080, Hosts: []string{"a", "b"}}

	require.NoError(t, ware.DumpJSONToEnv("WAREKIT_SETTINGS", settings))
	assert.JSONEq(t, `{"name":"api","port":8080,"hosts":["a","b"]}`, os.Getenv("WAREKIT_SETTINGS"))

	loaded, err := ware.LoadJSONFromEnv[serviceSettings]("WAREKIT_SETTINGS")
	require.NoError(t, err)
	assert.Equal(t, settings, loaded)

	asMap, err := ware.LoadJSONFromEnv[map[string]any]("WAREKIT_SETTINGS")
	require.NoError(t, err)
	assert.Equal(t, "api", asMap["name"])
}

func Test_LoadJSONFromEnv_MissingVariable(t *testing.T) {
	_, spy := helper.GivenProcessSinkSpy(t)

	_, err := ware.LoadJSONFromEnv[map[string]any]("WAREKIT_NOT_SET_ANYWHERE")

	assert.ErrorIs(t, err, ware.ErrMissingValue)
	assert.Equal(t, 1, spy.CountErrorLogs())
}

func Test_LoadJSONFromEnv_InvalidJSON(t *testing.T) {
	_, spy := helper.GivenProcessSinkSpy(t)
	t.Setenv("WAREKIT_BROKEN", "{not json")

	_, err := ware.LoadJSONFromEnv[map[string]any]("WAREKIT_BROKEN")

	var logged *logging.LoggedError
	require.ErrorAs(t, err, &logged)
	assert.Equal(t, "ware.LoadJSONFromEnv", logged.Origin)
	assert.Equal(t, 1, spy.CountErrorLogs())
	assert.True(t, spy.HasErrorLogWithMessage(logged.Err.Error()).
		WithAttr("node", "ware.LoadJSONFromEnv").
		Assert())
}

func Test_LoadJSON_MalformedFiles_ShareOneErrorTypeLabel(t *testing.T) {
	metricsSpy := testdoubles.NewMetricsCollectorSpy(true)
	helper.GivenProcessSinkSpy(t, logging.WithMetrics(metricsSpy))

	dir := t.TempDir()
	for i, content := range []string{"{not json", `{"port": 80,,}`} {
		path := filepath.Join(dir, "broken"+string(rune('a'+i))+".json")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600), "error in arranging test data")

		_, err := ware.LoadJSON(path)
		require.Error(t, err)
	}

	records := metricsSpy.GetCounterRecords()
	require.Len(t, records, 2)

	labels := map[string]bool{}
	for _, record := range records {
		labels[record.Labels["error_type"]] = true
		assert.NotContains(t, record.Labels["error_type"], "broken")
	}

	assert.Len(t, labels, 1)
}

func Test_SaveJSON_LoadJSON(t *testing.T) {
	helper.GivenProcessSinkSpy(t)
	path := filepath.Join(t.TempDir(), "settings.json")

	require.NoError(t, ware.SaveJSON(path, map[string]any{"name": "api", "port": 8080}))

	loaded, err := ware.LoadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "api", "port": float64(8080)}, loaded)
}

func Test_LoadJSON_NonObjectRoot(t *testing.T) {
	helper.GivenProcessSinkSpy(t)
	path := filepath.Join(t.TempDir(), "list.json")
	require.NoError(t, os.WriteFile(path, []byte(`[1, 2]`), 0o600))

	_, err := ware.LoadJSON(path)

	assert.ErrorIs(t, err, ware.ErrUnexpectedType)
}
