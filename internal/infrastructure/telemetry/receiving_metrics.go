package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when no meter is given
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// Completion outcomes
const (
	OutcomeCompleted = "completed"
	OutcomeRejected  = "rejected"
)

// ReceivingMetrics counts what receive completion does to inventory. A nil
// *ReceivingMetrics records nothing.
type ReceivingMetrics struct {
	completions   *Counter
	lotsCreated   *Counter
	serials       *Counter
	overReceived  *Counter
	linesReceived *Counter
	duration      *Histogram
}

// CompletionStats is what one successful completion produced
type CompletionStats struct {
	TenantID            uuid.UUID
	LotsCreated         int
	SerialsCreated      int
	OverReceivedLines   int
	ItemsProcessed      int
	PurchaseOrderStatus string
}

// NewReceivingMetrics creates the receiving instruments on meter
func NewReceivingMetrics(meter metric.Meter) (*ReceivingMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	var (
		m   ReceivingMetrics
		err error
	)
	if m.completions, err = NewCounter(meter, "receiving_receive_completions_total",
		"Receive completion attempts by outcome", "{completion}"); err != nil {
		return nil, err
	}
	if m.lotsCreated, err = NewCounter(meter, "receiving_inventory_lots_created_total",
		"Inventory lots created by completed receives", "{lot}"); err != nil {
		return nil, err
	}
	if m.serials, err = NewCounter(meter, "receiving_inventory_serials_created_total",
		"Inventory serials created by completed receives", "{serial}"); err != nil {
		return nil, err
	}
	if m.overReceived, err = NewCounter(meter, "receiving_over_received_lines_total",
		"Purchase order lines received beyond the ordered quantity", "{line}"); err != nil {
		return nil, err
	}
	if m.linesReceived, err = NewCounter(meter, "receiving_receive_lines_total",
		"Receive lines processed by completed receives", "{line}"); err != nil {
		return nil, err
	}
	if m.duration, err = NewHistogram(meter, HistogramOpts{
		Name:        "receiving_receive_completion_duration_seconds",
		Description: "Receive completion latency in seconds",
		Unit:        "s",
		Boundaries:  HTTPDurationBuckets,
	}); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordCompleted records a committed completion
func (m *ReceivingMetrics) RecordCompleted(ctx context.Context, stats CompletionStats, elapsed time.Duration) {
	if m == nil {
		return
	}
	tenant := AttrTenantID.String(stats.TenantID.String())
	m.completions.Inc(ctx, tenant, AttrOutcome.String(OutcomeCompleted), AttrPOStatus.String(stats.PurchaseOrderStatus))
	m.linesReceived.Add(ctx, int64(stats.ItemsProcessed), tenant)
	if stats.LotsCreated > 0 {
		m.lotsCreated.Add(ctx, int64(stats.LotsCreated), tenant)
	}
	if stats.SerialsCreated > 0 {
		m.serials.Add(ctx, int64(stats.SerialsCreated), tenant)
	}
	if stats.OverReceivedLines > 0 {
		m.overReceived.Add(ctx, int64(stats.OverReceivedLines), tenant)
	}
	m.duration.RecordDuration(ctx, elapsed, AttrOutcome.String(OutcomeCompleted))
}

// RecordRejected records a completion that rolled back
func (m *ReceivingMetrics) RecordRejected(ctx context.Context, tenantID uuid.UUID, errorKind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.completions.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrOutcome.String(OutcomeRejected),
		attribute.String("error_kind", errorKind),
	)
	m.duration.RecordDuration(ctx, elapsed, AttrOutcome.String(OutcomeRejected))
}
