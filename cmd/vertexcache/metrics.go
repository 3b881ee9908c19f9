package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"

	"github.com/IvanBrykalov/vertexcache/cache"
	"github.com/IvanBrykalov/vertexcache/config"
	otelmetrics "github.com/IvanBrykalov/vertexcache/metrics/otel"
	"github.com/IvanBrykalov/vertexcache/metrics/prom"
	"github.com/IvanBrykalov/vertexcache/stream"
)

// sink is both a cache.Metrics and a stream.Metrics.
type sink interface {
	cache.Metrics
	stream.Metrics
}

// metricsBackend wires the configured exporter. report is called once the
// command is done; for Prometheus it stops the HTTP server, for OTel it
// prints the collected totals.
type metricsBackend struct {
	prom   *prom.Adapter
	otel   *otelmetrics.Adapter
	report func(ctx context.Context, w io.Writer) error
}

func newMetricsBackend(cfg config.MetricsConfig, log *zap.Logger) (*metricsBackend, error) {
	noop := func(context.Context, io.Writer) error { return nil }
	if !cfg.Enabled {
		return &metricsBackend{report: noop}, nil
	}

	switch cfg.Backend {
	case "otel":
		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		a, err := otelmetrics.New(mp.Meter("github.com/IvanBrykalov/vertexcache"))
		if err != nil {
			return nil, err
		}
		return &metricsBackend{
			otel: a,
			report: func(ctx context.Context, w io.Writer) error {
				var rm metricdata.ResourceMetrics
				if err := reader.Collect(ctx, &rm); err != nil {
					return err
				}
				printTotals(w, rm)
				return mp.Shutdown(ctx)
			},
		}, nil

	default:
		reg := prometheus.NewRegistry()
		a := prom.New(reg, cfg.Namespace, nil)
		if cfg.Addr == "" {
			return &metricsBackend{prom: a, report: noop}, nil
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.Addr, Handler: mux}
		go func() {
			log.Info("metrics: serving", zap.String("addr", cfg.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", zap.Error(err))
			}
		}()
		return &metricsBackend{
			prom:   a,
			report: func(ctx context.Context, _ io.Writer) error { return srv.Shutdown(ctx) },
		}, nil
	}
}

// adapter returns the configured sink, or nil when metrics are disabled.
func (m *metricsBackend) adapter() sink {
	switch {
	case m.prom != nil:
		return m.prom
	case m.otel != nil:
		return m.otel
	default:
		return nil
	}
}

func printTotals(w io.Writer, rm metricdata.ResourceMetrics) {
	var lines []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					lines = append(lines, fmt.Sprintf("%s%s %d", m.Name, labels(dp.Attributes.Encoded(attribute.DefaultEncoder())), dp.Value))
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					lines = append(lines, fmt.Sprintf("%s %d", m.Name, dp.Value))
				}
			}
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}

func labels(encoded string) string {
	if encoded == "" {
		return ""
	}
	return "{" + encoded + "}"
}
