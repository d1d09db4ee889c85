// Package metrics records generation metrics.
//
// Components receive a Recorder through dependency injection. NoopRecorder is
// the default; PrometheusRecorder backs the optional textfile output that a
// node_exporter textfile collector can pick up:
//
//	rec := metrics.NewPrometheusRecorder(nil)
//	gen := generator.New(cfg, generator.WithRecorder(rec))
//	...
//	_ = rec.WriteTextfile(cfg.Metrics.Textfile)
package metrics
