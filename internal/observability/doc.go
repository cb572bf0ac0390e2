// Package observability provides the append-only JSONL event log, metrics
// aggregation over the log, alert evaluation over the stored goal data, and
// the notifier that pushes alert batches out through the webhook registry.
package observability
