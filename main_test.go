package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestPickMode(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	undo := zap.ReplaceGlobals(zap.New(core))
	defer undo()

	assert.Equal(t, modeServe, pickMode(false, ""))
	assert.Equal(t, modeReclaimOnce, pickMode(true, "@hourly"))
	assert.Zero(t, logs.Len())

	assert.Equal(t, modeSchedule, pickMode(false, "@hourly"))

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Contains(t, entries[0].Message, "HTTP server will not be started")
		assert.Equal(t, "@hourly", entries[0].ContextMap()["schedule"])
	}
}
