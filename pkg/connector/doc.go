// Package connector groups the pieces ratepipe pipelines are assembled from.
//
// # Architecture Overview
//
// The connector package is organized into several sub-packages:
//
//   - core: Defines the stage interfaces every pipeline is built from:
//     Extractor, Transformer and Loader, plus function adapters.
//
//   - registry: Maps connector names to factories so the rates pipeline can
//     pick its source and destination from configuration.
//
//   - sources: Extractors. nbrb fetches exchange rates over HTTP; csv reads
//     the Sample Superstore dataset.
//
//   - destinations: Loaders. sqlite, postgresql and json persist normalized
//     rates; postgresql also appends superstore orders; csv writes report
//     tables to files.
//
// # Creating a Connector
//
// A rate destination is any type with a Load method. Register it from an
// init function so that importing the package makes it available:
//
//	func init() {
//	    _ = registry.RegisterDestination("stdout", "Print rates to stdout",
//	        func(cfg *config.Config) (registry.RateDestination, error) {
//	            return core.LoaderFunc[models.NormalizedRateRecord](printRates), nil
//	        })
//	}
//
// Connectors holding resources implement core.Closer; callers release them
// with core.CloseAll once the pipeline has run.
package connector
