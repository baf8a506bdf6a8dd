package mcpserver

import (
	"context"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	gatewayMetricsOnce      sync.Once
	gatewayRequestCounter   metric.Int64Counter
	gatewayErrorCounter     metric.Int64Counter
	gatewayLatencyHistogram metric.Float64Histogram
)

func initGatewayMetrics() {
	gatewayMetricsOnce.Do(func() {
		meter := otel.Meter("workgate/mcpserver")

		var err error
		gatewayRequestCounter, err = meter.Int64Counter(
			"workgate.gateway.requests.total",
			metric.WithDescription("Total gateway requests"),
		)
		if err != nil {
			log.Printf("observability: failed to create gateway request counter: %v", err)
		}

		gatewayErrorCounter, err = meter.Int64Counter(
			"workgate.gateway.errors.total",
			metric.WithDescription("Total gateway request errors"),
		)
		if err != nil {
			log.Printf("observability: failed to create gateway error counter: %v", err)
		}

		gatewayLatencyHistogram, err = meter.Float64Histogram(
			"workgate.gateway.response_time",
			metric.WithDescription("Gateway request response time (ms)"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			log.Printf("observability: failed to create gateway latency histogram: %v", err)
		}
	})
}

func recordGatewayMetrics(ctx context.Context, attrs []attribute.KeyValue, duration time.Duration, errType string) {
	initGatewayMetrics()
	if gatewayRequestCounter != nil {
		gatewayRequestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if gatewayLatencyHistogram != nil {
		gatewayLatencyHistogram.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	}
	if errType != "" && gatewayErrorCounter != nil {
		errAttrs := make([]attribute.KeyValue, len(attrs)+1)
		copy(errAttrs, attrs)
		errAttrs[len(attrs)] = attribute.String("error.type", errType)
		gatewayErrorCounter.Add(ctx, 1, metric.WithAttributes(errAttrs...))
	}
}
