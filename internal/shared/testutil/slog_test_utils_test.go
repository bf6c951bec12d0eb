package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures records and attributes", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("dataset loaded", slog.Int("rows", 12))
		logger.Error("reload failed", slog.String("path", "vendas.csv"))

		assert.Equal(t, 2, handler.Count())
		assert.True(t, handler.ContainsMessage("dataset loaded"))
		assert.True(t, handler.ContainsAttr("rows", int64(12)))
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
	})

	t.Run("derived loggers share the buffer", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		child := logger.With(slog.String("component", "loader"))
		child.Warn("coerced values")

		records := handler.GetRecords()
		if assert.Len(t, records, 1) {
			assert.Equal(t, "loader", records[0].Attrs["component"])
		}
	})

	t.Run("clear", func(t *testing.T) {
		logger, handler := NewTestLogger(t)
		logger.Info("one")
		handler.Clear()
		assert.Zero(t, handler.Count())
	})
}
