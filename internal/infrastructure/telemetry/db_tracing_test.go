package telemetry

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func tracedDB(t *testing.T, cfg DBTracingConfig) (*gorm.DB, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "trace.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))

	cfg.TracerProvider = tp
	require.NoError(t, db.Use(NewDBTracingPlugin(cfg)))
	return db, sr
}

func TestDBTracingPlugin_CreatesStatementSpans(t *testing.T) {
	db, sr := tracedDB(t, DBTracingConfig{})

	require.NoError(t, db.Create(&tracedRow{Name: "bolt"}).Error)
	var rows []tracedRow
	require.NoError(t, db.Where("name = ?", "bolt").Find(&rows).Error)

	spans := sr.Ended()
	require.GreaterOrEqual(t, len(spans), 2)
	for _, span := range spans {
		for _, kv := range span.Attributes() {
			if kv.Key == "db.statement" {
				assert.NotContains(t, kv.Value.AsString(), "'bolt'", "query variables are stripped by default")
			}
		}
	}
}

func TestDBTracingPlugin_MarksSlowQueries(t *testing.T) {
	db, sr := tracedDB(t, DBTracingConfig{SlowQueryThresh: time.Nanosecond})

	var rows []tracedRow
	require.NoError(t, db.Find(&rows).Error)

	var slow bool
	for _, span := range sr.Ended() {
		for _, kv := range span.Attributes() {
			if kv.Key == "db.slow_query" && kv.Value.AsBool() {
				slow = true
			}
		}
	}
	assert.True(t, slow)
}

func TestNewDBTracingPlugin_Defaults(t *testing.T) {
	p := NewDBTracingPlugin(DBTracingConfig{})
	assert.Equal(t, "receiving", p.config.DBName)
	assert.Equal(t, 200*time.Millisecond, p.config.SlowQueryThresh)
	assert.Equal(t, "receiving:db_tracing", p.Name())
}
