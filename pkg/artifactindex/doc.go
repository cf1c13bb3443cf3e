// Package artifactindex is a persistent full-text index over catalogued
// artifacts.
//
// Records are indexed field by field from a fixed schema and found again by
// prefix search, either within one field or across all of them:
//
//	svc, err := artifactindex.OpenPath("./lucene_index")
//	if err != nil {
//	    return err
//	}
//	defer svc.Close()
//
//	_ = svc.UpsertOne(ctx, artifactindex.Artifact{ID: 1, Name: "Ceremonial Mask"})
//
//	// Relevance order within one field
//	byName, _ := svc.Search(ctx, "cere", "name")
//
//	// Insertion order across every field
//	anywhere, _ := svc.Search(ctx, "mask", "")
//
// # Locking
//
// With index.force_unlock on (the default) every access clears a stale
// write.lock, so a crashed writer never blocks the index. Hosts where more
// than one process writes to the same directory should turn it off; writers
// then wait up to index.lock_timeout and fail with ERR_207_INDEX_LOCKED.
package artifactindex
