package main

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelRouterSplitsByLevel(t *testing.T) {
	var out, errs bytes.Buffer
	logger := slog.New(newLevelRouter(&out, &errs)).With("component", "test")

	logger.Debug("hidden")
	logger.Info("delivery created", "delivery", 1)
	logger.Warn("login failed")
	logger.Error("database gone")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "delivery created")
	assert.Contains(t, out.String(), "login failed")
	assert.NotContains(t, out.String(), "database gone")

	assert.Contains(t, errs.String(), "database gone")
	assert.Contains(t, errs.String(), "component=test")
	assert.NotContains(t, errs.String(), "login failed")
}
