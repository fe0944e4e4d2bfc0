// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyFort Contributors

package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyfort/keyfort/internal/logging"
)

func TestSetup(t *testing.T) {
	t.Run("json output carries service identity", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.Setup("keyfort", "1.2.3", "json", "info", &buf)

		logger.Info("session issued", "username", "alice")

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "keyfort", record["service"])
		assert.Equal(t, "1.2.3", record["version"])
		assert.Equal(t, "session issued", record["msg"])
		assert.Equal(t, "alice", record["username"])
	})

	t.Run("text format", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.Setup("keyfort", "dev", "text", "info", &buf)

		logger.Info("hello")
		assert.Contains(t, buf.String(), "service=keyfort")
	})

	t.Run("level filtering", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.Setup("keyfort", "dev", "json", "warn", &buf)

		logger.Info("filtered out")
		assert.Empty(t, buf.Bytes())

		logger.Warn("kept")
		assert.NotEmpty(t, buf.Bytes())
	})

	t.Run("unknown level defaults to info", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.Setup("keyfort", "dev", "json", "noisy", &buf)

		logger.Debug("filtered out")
		assert.Empty(t, buf.Bytes())
		logger.Info("kept")
		assert.NotEmpty(t, buf.Bytes())
	})

	t.Run("attrs survive WithAttrs", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.Setup("keyfort", "dev", "json", "info", &buf)

		logger.With("request_id", "r42").Info("ok", "username", "alice")

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "keyfort", record["service"])
		assert.Equal(t, "r42", record["request_id"])
	})
}
