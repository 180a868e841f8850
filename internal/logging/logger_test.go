package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"trace": TRACE,
		"DEBUG": DEBUG,
		"":      INFO,
		"warn":  WARN,
		"Error": ERROR,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, "уровень %q", in)
		assert.Equal(t, want, got)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestWriterLoggerFiltersLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("engine", &buf, WARN)

	logger.Debug("не должно попасть")
	logger.Info("и это тоже")
	logger.Warn("чанк %d", 7)
	logger.Error("сломалось: %v", "всё")

	out := buf.String()
	assert.NotContains(t, out, "не должно попасть")
	assert.NotContains(t, out, "и это тоже")
	assert.Contains(t, out, "[WARN] [engine] чанк 7")
	assert.Contains(t, out, "[ERROR] [engine] сломалось: всё")
	assert.Equal(t, "engine", logger.Component())
}

func TestNewLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	Configure(dir, ERROR)
	defer Configure("", INFO)

	logger, err := NewLogger("world")
	require.NoError(t, err)
	logger.Debug("отладка в файл")
	require.NoError(t, logger.Close())

	files, err := filepath.Glob(filepath.Join(dir, "world_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "отладка в файл")
}

func TestLoggerManagerReusesLoggers(t *testing.T) {
	lm := GetLoggerManager()

	a := lm.MustGetLogger("test-component")
	b := GetComponentLogger("test-component")
	assert.Same(t, a, b)
	assert.Contains(t, lm.ListComponents(), "test-component")
}

func TestLoggerManagerComponentLevels(t *testing.T) {
	lm := newLoggerManager()

	existing := lm.MustGetLogger("engine")
	err := lm.ApplyLevels(map[string]string{
		"engine": "error",
		"events": "debug",
		"api":    "громко",
	})
	assert.Error(t, err, "неизвестный уровень не принимается")

	assert.Equal(t, ERROR, existing.minConsoleLevel, "уровень применяется к уже созданному логгеру")
	assert.Equal(t, DEBUG, lm.MustGetLogger("events").minConsoleLevel, "и к созданному позже")
	assert.Equal(t, INFO, lm.MustGetLogger("api").minConsoleLevel)

	require.NoError(t, lm.CloseAll())
	assert.Empty(t, lm.ListComponents())
}
