package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docstore/docstore.go/pkg/logger"
)

func TestZeroLoggerEmitsStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf)

	log.Info("fetch finished", "path", "version/1/user/u1", "policy", "default")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "fetch finished", line["message"])
	assert.Equal(t, "version/1/user/u1", line["path"])
	assert.Equal(t, "default", line["policy"])
	assert.Contains(t, line, "time")
}

func TestZeroLoggerToleratesOddArgs(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf)

	log.Warn("half a pair", "dangling")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "dangling", line["arg"])
}

func TestNoopDiscards(t *testing.T) {
	assert.NotPanics(t, func() {
		log := logger.Noop()
		log.Error("nothing", "k", "v")
		log.Debug("nothing")
	})
}
