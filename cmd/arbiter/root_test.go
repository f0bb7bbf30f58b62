package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Arbiter/internal/config"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(config.LoggingConfig{Level: "warn", Format: "text"}, false, &buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "level=WARN")

	buf.Reset()
	logger, err = newLogger(config.LoggingConfig{Level: "warn", Format: "json"}, true, &buf)
	require.NoError(t, err)
	assert.True(t, logger.Enabled(context.Background(), -4), "debug flag overrides level")
	logger.Debug("visible")
	assert.True(t, strings.HasPrefix(buf.String(), "{"))

	_, err = newLogger(config.LoggingConfig{Level: "loud"}, false, &buf)
	assert.Error(t, err)
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	cmd := newRootCommand()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "analyze")
	assert.NotNil(t, cmd.PersistentFlags().Lookup("debug"))
}
