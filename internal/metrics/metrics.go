package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/eventease/ticketing/pkg/telemetry"
)

var (
	// Settlement counters
	TicketsSettled   *telemetry.Counter
	SettlementsFailed *telemetry.Counter
	SoldOutRejections *telemetry.Counter
	SessionReplays    *telemetry.Counter

	// Scan counters
	ScansValidated  *telemetry.Counter
	ScansRejected   *telemetry.Counter
	ScansDuplicate  *telemetry.Counter

	// Outbox counters
	OutboxPublished *telemetry.Counter
	OutboxFailed    *telemetry.Counter

	// Histograms
	SettlementDuration *telemetry.Histogram
	ScanDuration       *telemetry.Histogram

	// Gauges
	OutboxBacklog *telemetry.UpDownCounter

	initOnce sync.Once
	initErr  error
)

// Init initializes all ticketing metrics
func Init() error {
	initOnce.Do(func() {
		initErr = initMetrics()
	})
	return initErr
}

func initMetrics() error {
	var err error

	TicketsSettled, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "ticketing_settlements_total",
		Description: "Total number of successfully settled ticket purchases",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	SettlementsFailed, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "ticketing_settlement_failures_total",
		Description: "Total number of failed settlements by reason",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	SoldOutRejections, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "ticketing_sold_out_rejections_total",
		Description: "Total number of purchases rejected as sold out",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	SessionReplays, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "ticketing_session_replays_total",
		Description: "Total number of payment confirmations deduplicated as replays",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	ScansValidated, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "ticketing_scans_validated_total",
		Description: "Total number of scans admitted",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	ScansRejected, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "ticketing_scans_rejected_total",
		Description: "Total number of scans rejected by reason",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	ScansDuplicate, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "ticketing_scans_duplicate_total",
		Description: "Total number of repeat scans tolerated within the grace window",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	OutboxPublished, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "ticketing_outbox_published_total",
		Description: "Total number of outbox messages delivered",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	OutboxFailed, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "ticketing_outbox_failures_total",
		Description: "Total number of outbox delivery failures",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	SettlementDuration, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "ticketing_settlement_duration_seconds",
		Description: "Purchase settlement duration",
		Unit:        "s",
	}, []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5})
	if err != nil {
		return err
	}

	ScanDuration, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "ticketing_scan_duration_seconds",
		Description: "Ticket scan duration",
		Unit:        "s",
	}, []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1})
	if err != nil {
		return err
	}

	OutboxBacklog, err = telemetry.NewUpDownCounter(telemetry.MetricOpts{
		Name:        "ticketing_outbox_backlog",
		Description: "Current number of unpublished outbox messages observed by the worker",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	return nil
}

// RecordSettlement records a successful settlement
func RecordSettlement(ctx context.Context, eventID, typeName string, free bool, durationSeconds float64) {
	if TicketsSettled != nil {
		TicketsSettled.Inc(ctx,
			attribute.String("event_id", eventID),
			attribute.String("ticket_type", typeName),
			attribute.Bool("free", free),
		)
	}
	if SettlementDuration != nil {
		SettlementDuration.Record(ctx, durationSeconds,
			attribute.String("event_id", eventID),
		)
	}
}

// RecordSettlementFailure records a failed settlement by reason
func RecordSettlementFailure(ctx context.Context, eventID, reason string) {
	if SettlementsFailed != nil {
		SettlementsFailed.Inc(ctx,
			attribute.String("event_id", eventID),
			attribute.String("reason", reason),
		)
	}
}

// RecordSoldOut records a sold-out rejection
func RecordSoldOut(ctx context.Context, eventID, typeName string) {
	if SoldOutRejections != nil {
		SoldOutRejections.Inc(ctx,
			attribute.String("event_id", eventID),
			attribute.String("ticket_type", typeName),
		)
	}
}

// RecordSessionReplay records a deduplicated payment confirmation
func RecordSessionReplay(ctx context.Context, eventID string) {
	if SessionReplays != nil {
		SessionReplays.Inc(ctx, attribute.String("event_id", eventID))
	}
}

// RecordScan records a scan outcome
func RecordScan(ctx context.Context, eventID, result string, duplicate bool, durationSeconds float64) {
	switch {
	case duplicate:
		if ScansDuplicate != nil {
			ScansDuplicate.Inc(ctx, attribute.String("event_id", eventID))
		}
	case result == "validated":
		if ScansValidated != nil {
			ScansValidated.Inc(ctx, attribute.String("event_id", eventID))
		}
	default:
		if ScansRejected != nil {
			ScansRejected.Inc(ctx,
				attribute.String("event_id", eventID),
				attribute.String("reason", result),
			)
		}
	}
	if ScanDuration != nil {
		ScanDuration.Record(ctx, durationSeconds, attribute.String("event_id", eventID))
	}
}

// RecordOutboxPublished records delivered outbox messages
func RecordOutboxPublished(ctx context.Context, kind string, count int64) {
	if OutboxPublished != nil {
		OutboxPublished.Add(ctx, count, attribute.String("kind", kind))
	}
}

// RecordOutboxFailure records an outbox delivery failure
func RecordOutboxFailure(ctx context.Context, kind string) {
	if OutboxFailed != nil {
		OutboxFailed.Inc(ctx, attribute.String("kind", kind))
	}
}
