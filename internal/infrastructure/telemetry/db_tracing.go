package telemetry

import (
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const queryStartKey = "telemetry:query_start"

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	DBName          string
	LogFullSQL      bool // include bound variables in db.statement (dev only)
	SlowQueryThresh time.Duration
	// TracerProvider overrides the global provider, mainly for tests
	TracerProvider trace.TracerProvider
}

// DBTracingPlugin is a gorm.Plugin creating one client span per statement via
// otelgorm and marking slow statements on that span.
type DBTracingPlugin struct {
	config DBTracingConfig
}

// NewDBTracingPlugin creates the plugin. Register it with db.Use or
// persistence.WithPlugins.
func NewDBTracingPlugin(cfg DBTracingConfig) *DBTracingPlugin {
	if cfg.DBName == "" {
		cfg.DBName = "receiving"
	}
	if cfg.SlowQueryThresh == 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	return &DBTracingPlugin{config: cfg}
}

// Name implements gorm.Plugin
func (p *DBTracingPlugin) Name() string {
	return "receiving:db_tracing"
}

// Initialize implements gorm.Plugin
func (p *DBTracingPlugin) Initialize(db *gorm.DB) error {
	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBName)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if p.config.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(p.config.TracerProvider))
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	cb := db.Callback()
	before := []error{
		cb.Create().Before("gorm:create").Register("telemetry:before_create", p.before),
		cb.Query().Before("gorm:query").Register("telemetry:before_query", p.before),
		cb.Update().Before("gorm:update").Register("telemetry:before_update", p.before),
		cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", p.before),
		cb.Row().Before("gorm:row").Register("telemetry:before_row", p.before),
		cb.Raw().Before("gorm:raw").Register("telemetry:before_raw", p.before),
	}
	// annotations must land before otelgorm ends the span
	after := []error{
		cb.Create().After("gorm:create").Before("otel:after_create").Register("telemetry:after_create", p.after),
		cb.Query().After("gorm:query").Before("otel:after_query").Register("telemetry:after_query", p.after),
		cb.Update().After("gorm:update").Before("otel:after_update").Register("telemetry:after_update", p.after),
		cb.Delete().After("gorm:delete").Before("otel:after_delete").Register("telemetry:after_delete", p.after),
		cb.Row().After("gorm:row").Before("otel:after_row").Register("telemetry:after_row", p.after),
		cb.Raw().After("gorm:raw").Before("otel:after_raw").Register("telemetry:after_raw", p.after),
	}
	return errors.Join(append(before, after...)...)
}

func (p *DBTracingPlugin) before(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func (p *DBTracingPlugin) after(db *gorm.DB) {
	span := trace.SpanFromContext(db.Statement.Context)
	if !span.IsRecording() {
		return
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}

	v, ok := db.InstanceGet(queryStartKey)
	if !ok {
		return
	}
	start, ok := v.(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > p.config.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}

var _ gorm.Plugin = (*DBTracingPlugin)(nil)
