package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWithSink_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithSink("debug", "json", zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Info("token issued", zap.Int64("user_id", 7))
	require.NoError(t, logger.Sync())

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "token issued", line["message"])
	assert.Equal(t, "info", line["level"])
	assert.EqualValues(t, 7, line["user_id"])
}

func TestNewWithSink_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithSink("warn", "json", zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Info("dropped")
	assert.Zero(t, buf.Len())
}

func TestNewWithSink_Invalid(t *testing.T) {
	_, err := NewWithSink("loud", "json", zapcore.AddSync(&bytes.Buffer{}))
	assert.Error(t, err)

	_, err = NewWithSink("info", "xml", zapcore.AddSync(&bytes.Buffer{}))
	assert.Error(t, err)
}
