package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/wakubase/internal/metrics"
)

func restoreGlobals(t *testing.T) {
	t.Helper()
	prevLogger := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})
}

func TestInit_WritesJSONToFile(t *testing.T) {
	restoreGlobals(t)
	path := filepath.Join(t.TempDir(), "state", "wakubase.log")

	closer, err := Init(Options{Level: "debug", File: path, MaxSizeMB: 1})
	require.NoError(t, err)
	log.Debug().Str("topic", "/app/1/chat/proto").Msg("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "hello", entry["message"])
	assert.Equal(t, "/app/1/chat/proto", entry["topic"])
	assert.Contains(t, entry, "time")
}

func TestInit_ConsoleAndLevelFilter(t *testing.T) {
	restoreGlobals(t)
	var buf bytes.Buffer

	closer, err := Init(Options{Level: "warn", Console: &buf})
	require.NoError(t, err)
	defer closer.Close()

	log.Info().Msg("quiet")
	log.Warn().Msg("loud")

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.True(t, strings.Contains(out, "loud"))
}

func TestInit_RejectsUnknownLevel(t *testing.T) {
	restoreGlobals(t)
	_, err := Init(Options{Level: "chatty"})
	assert.Error(t, err)
}

func TestMetricsHook_CountsByLevel(t *testing.T) {
	restoreGlobals(t)
	m := metrics.New()
	var buf bytes.Buffer

	_, err := Init(Options{Console: &buf, Metrics: m})
	require.NoError(t, err)
	log.Info().Msg("one")
	log.Error().Msg("two")

	counts := map[string]float64{}
	families, err := m.Registry.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "wakubase_log_statements_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			counts[metric.GetLabel()[0].GetValue()] = metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1.0, counts["info"])
	assert.Equal(t, 1.0, counts["error"])
}
