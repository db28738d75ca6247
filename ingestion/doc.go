// Package ingestion keeps the vector index in step with the catalog.
//
// A Pipeline builds the index from the current catalog, either synchronously
// with Ingest (retried with exponential backoff) or asynchronously with
// Notify. Asynchronous requests that arrive while a rebuild is still queued
// are coalesced into it, and builds never overlap, so the last build to
// finish always reflects the latest catalog.
//
// Example:
//
//	pipeline, err := ingestion.NewPipeline(store, idx)
//	if err != nil {
//	    return err
//	}
//	defer pipeline.Release()
//	if err := pipeline.Ingest(ctx); err != nil {
//	    return err
//	}
//	store.OnChange(pipeline.Notify)
package ingestion
