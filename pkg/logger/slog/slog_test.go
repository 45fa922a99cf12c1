package slog_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	rawslog "log/slog"

	"github.com/stretchr/testify/require"

	"github.com/docstore/docstore.go/pkg/logger/slog"
)

func TestLogger(t *testing.T) {
	buffer := bytes.NewBuffer([]byte{})
	handler := rawslog.NewJSONHandler(buffer, &rawslog.HandlerOptions{Level: rawslog.LevelDebug})
	logger := slog.New(handler)

	methods := []struct {
		fn    func(msg string, args ...any)
		level rawslog.Level
	}{
		{fn: logger.Error, level: rawslog.LevelError},
		{fn: logger.Warn, level: rawslog.LevelWarn},
		{fn: logger.Info, level: rawslog.LevelInfo},
		{fn: logger.Debug, level: rawslog.LevelDebug},
	}

	for _, m := range methods {
		t.Run(fmt.Sprintf("testing %s", m.level.String()), func(t *testing.T) {
			buffer.Reset()
			m.fn("subscription disposed", "path", "version/1/user/u1")

			var line map[string]any
			require.NoError(t, json.Unmarshal(buffer.Bytes(), &line))
			require.Equal(t, m.level.String(), line["level"])
			require.Equal(t, "subscription disposed", line["msg"])
			require.Equal(t, "version/1/user/u1", line["path"])
		})
	}
}
