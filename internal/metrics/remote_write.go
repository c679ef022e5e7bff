package metrics

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang/snappy"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/prometheus/prompb"
	"go.uber.org/zap"

	"github.com/statuslabs/domainwatch/internal/config"
)

// RemoteWriter periodically pushes the default registry's metrics to a
// Prometheus remote write endpoint (Mimir, Thanos, or Prometheus itself).
// Disabled when no URL is configured.
type RemoteWriter struct {
	cfg    config.RemoteWriteConfig
	client *http.Client
	logger *zap.Logger
}

func NewRemoteWriter(cfg config.RemoteWriteConfig, logger *zap.Logger) *RemoteWriter {
	return &RemoteWriter{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

func (w *RemoteWriter) Enabled() bool { return w.cfg.URL != "" }

func (w *RemoteWriter) Start(ctx context.Context) {
	if !w.Enabled() {
		return
	}

	ticker := time.NewTicker(w.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.flush(); err != nil {
				w.logger.Warn("Remote write flush failed", zap.Error(err))
			}
		}
	}
}

func (w *RemoteWriter) flush() error {
	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	series := familiesToSeries(mfs, time.Now())
	if len(series) == 0 {
		return nil
	}

	for i := 0; i < len(series); i += w.cfg.BatchSize {
		end := i + w.cfg.BatchSize
		if end > len(series) {
			end = len(series)
		}
		if err := w.sendBatch(series[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func familiesToSeries(mfs []*dto.MetricFamily, now time.Time) []prompb.TimeSeries {
	ts := now.UnixNano() / 1e6
	var series []prompb.TimeSeries

	for _, mf := range mfs {
		for _, m := range mf.Metric {
			labels := make([]prompb.Label, 0, len(m.Label)+1)
			labels = append(labels, prompb.Label{
				Name:  "__name__",
				Value: mf.GetName(),
			})
			for _, l := range m.Label {
				labels = append(labels, prompb.Label{
					Name:  l.GetName(),
					Value: l.GetValue(),
				})
			}

			var value float64
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				value = m.Counter.GetValue()
			case dto.MetricType_GAUGE:
				value = m.Gauge.GetValue()
			case dto.MetricType_HISTOGRAM:
				hist := m.Histogram
				for _, bucket := range hist.Bucket {
					bucketLabels := append([]prompb.Label{}, labels...)
					bucketLabels = append(bucketLabels, prompb.Label{
						Name:  "le",
						Value: fmt.Sprintf("%g", bucket.GetUpperBound()),
					})
					series = append(series, prompb.TimeSeries{
						Labels: bucketLabels,
						Samples: []prompb.Sample{{
							Value:     float64(bucket.GetCumulativeCount()),
							Timestamp: ts,
						}},
					})
				}
				continue
			default:
				continue
			}

			series = append(series, prompb.TimeSeries{
				Labels: labels,
				Samples: []prompb.Sample{{
					Value:     value,
					Timestamp: ts,
				}},
			})
		}
	}

	return series
}

func (w *RemoteWriter) sendBatch(series []prompb.TimeSeries) error {
	req := &prompb.WriteRequest{Timeseries: series}

	data, err := req.Marshal()
	if err != nil {
		return fmt.Errorf("marshal write request: %w", err)
	}
	compressed := snappy.Encode(nil, data)

	httpReq, err := http.NewRequest(http.MethodPost, w.cfg.URL, bytes.NewReader(compressed))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/x-protobuf")
	httpReq.Header.Set("Content-Encoding", "snappy")
	httpReq.Header.Set("X-Prometheus-Remote-Write-Version", "0.1.0")
	if w.cfg.AuthToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+w.cfg.AuthToken)
	}

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("remote write failed: %s", resp.Status)
	}
	return nil
}
