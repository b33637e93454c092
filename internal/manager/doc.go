// Package manager owns the upscaling request pipeline: it validates requests
// against the catalog, fetches input, consults the result cache, builds model
// instances on first use and admits computations onto a bounded set of
// workers. It is structured into small files by concern:
//
//   - manager.go: Manager type, constructor, readiness, Close.
//   - config.go: ManagerConfig and package defaults.
//   - types.go: instance state and the pooled Instance.
//   - errors.go: the Kind taxonomy, ScaleError and predicates (IsTooBusy, KindOf).
//   - pool.go: construct-once instance pool keyed by configuration.
//   - admission.go: worker slots, bounded queue and per-instance serialization.
//   - scale.go: the Scale pipeline entry point.
//   - status_report.go: ListModels and Status projections.
//   - events.go, eventpub_*.go: lifecycle events and publishers.
//   - metrics.go: Prometheus collectors for the pool and compute stages.
//
// External packages should use public methods only (NewWithConfig, Scale,
// ListModels, Status, Ready, Close).
package manager
