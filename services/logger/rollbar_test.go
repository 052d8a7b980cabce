package logsvc

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/user"
)

func TestRollbarLogger(t *testing.T) {
	obs, logs := observer.New(zap.DebugLevel)
	logger := NewRollbarLogger(zap.New(obs), core.NewTestConfig())

	usr := user.User{ID: "u-1", FirstName: "Ana", Email: "ana@mail.com"}
	logger.Warn("tutoring limit update denied", map[string]interface{}{"target": "u-2"}, usr)
	logger.Error("sending email", errors.New("boom"))

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, zap.WarnLevel, entries[0].Level)
		ctx := entries[0].ContextMap()
		assert.Equal(t, "u-2", ctx["target"])
		assert.Equal(t, "u-1", ctx["user"])

		assert.Equal(t, zap.ErrorLevel, entries[1].Level)
		assert.Equal(t, "boom", entries[1].ContextMap()["error"])
	}
}
