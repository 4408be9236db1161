package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100"`
}

func setupTracedDB(t *testing.T, cfg DBTracingConfig) (*gorm.DB, *tracetest.SpanRecorder) {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	require.NoError(t, NewDBTracingPlugin(cfg, zap.NewNop()).Register(db))
	return db, sr
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "postgresql", cfg.DBSystem)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	db, sr := setupTracedDB(t, DBTracingConfig{Enabled: false})

	require.NoError(t, db.Create(&tracedRow{Name: "a"}).Error)
	assert.Empty(t, sr.Ended())
}

func TestDBTracingPlugin_RecordsStatementSpans(t *testing.T) {
	cfg := DefaultDBTracingConfig()
	cfg.DBSystem = "sqlite"
	db, sr := setupTracedDB(t, cfg)

	ctx := context.Background()
	require.NoError(t, db.WithContext(ctx).Create(&tracedRow{Name: "a"}).Error)
	var rows []tracedRow
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)

	spans := sr.Ended()
	require.GreaterOrEqual(t, len(spans), 2)
	found := false
	for _, s := range spans {
		for _, kv := range s.Attributes() {
			if kv.Key == "db.rows_affected" {
				found = true
			}
		}
	}
	assert.True(t, found, "statement spans should carry rows affected")
}

func TestDBTracingPlugin_MarksSlowQueries(t *testing.T) {
	cfg := DefaultDBTracingConfig()
	cfg.SlowQueryThresh = time.Nanosecond
	db, sr := setupTracedDB(t, cfg)

	require.NoError(t, db.WithContext(context.Background()).Create(&tracedRow{Name: "slow"}).Error)

	slow := false
	for _, s := range sr.Ended() {
		for _, e := range s.Events() {
			if e.Name == "slow_query_warning" {
				slow = true
			}
		}
	}
	assert.True(t, slow)
}
