// Package ratepipe is a small Extract, Transform & Load toolkit built around
// two jobs.
//
// The rates job fetches the daily official exchange rates published by the
// National Bank of the Republic of Belarus, drops entries without a rate,
// keeps USD, EUR, RUB and CNY, adds the per-unit rate (rate / scale) and
// replaces a table in an embedded SQLite database. It needs no configuration:
//
//	ratepipe run
//
// The superstore job loads the Sample Superstore CSV dataset into PostgreSQL,
// runs a fixed set of analytical queries and exports their results as CSV
// files and HTML charts:
//
//	ratepipe superstore load
//	ratepipe superstore export --all
//	ratepipe superstore charts
//
// # Architecture
//
// Every job is an internal/pipeline.Pipeline composed of one extractor, one
// transformer and one loader (pkg/connector/core). Rate sources and
// destinations are looked up by name in pkg/connector/registry, so
//
//	ratepipe run --destination postgresql
//
// swaps the SQLite table for a PostgreSQL one without further changes.
//
// # Key Packages
//
//	pkg/connector    - Extractor/Transformer/Loader interfaces, registry and connectors
//	pkg/transform    - Rate normalization and dataset profiling
//	pkg/reports      - Embedded analytical SQL
//	pkg/charts       - HTML chart rendering
//	pkg/config       - Unified configuration management
//	pkg/errors       - Structured error handling
//	pkg/logger       - Structured logging
//	pkg/metrics      - Prometheus metrics written as a textfile
//	pkg/observability - OpenTelemetry tracing
//
// # Connectors
//
// Rate sources:
//   - nbrb: NBRB REST API
//
// Rate destinations:
//   - sqlite (default)
//   - postgresql
//   - json
package ratepipe
