package logger

import (
	"context"
	"testing"

	"firestore-explorer/internal/shared/contextkeys"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogrusLogger_WithComponentAndFields(t *testing.T) {
	base, hook := test.NewNullLogger()
	log := NewFromLogrus(base)

	log.WithComponent("collection_usecase").
		WithFields(map[string]interface{}{"collection_path": "users"}).
		Info("collection loaded")

	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, "collection loaded", entry.Message)
	assert.Equal(t, "collection_usecase", entry.Data["component"])
	assert.Equal(t, "users", entry.Data["collection_path"])
}

func TestLogrusLogger_WithContext(t *testing.T) {
	base, hook := test.NewNullLogger()
	log := NewFromLogrus(base)

	ctx := context.WithValue(context.Background(), contextkeys.RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, contextkeys.OperationKey, "delete_collection")
	log.WithContext(ctx).Warn("not confirmed")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "req-1", entry.Data["request_id"])
	assert.Equal(t, "delete_collection", entry.Data["operation"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, parseLevel("warning"))
	assert.Equal(t, logrus.InfoLevel, parseLevel("unknown"))
}

func TestZapLogger_WithFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := NewZapFromCore(zap.New(core))

	log.WithComponent("realtime").WithFields(map[string]interface{}{"subscriber_id": "s1"}).Debug("snapshot sent")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "snapshot sent", entry.Message)
	ctxMap := entry.ContextMap()
	assert.Equal(t, "realtime", ctxMap["component"])
	assert.Equal(t, "s1", ctxMap["subscriber_id"])
}

func TestNewZapLogger_InvalidLevel(t *testing.T) {
	_, err := NewZapLogger("loud", false)
	assert.Error(t, err)
}
