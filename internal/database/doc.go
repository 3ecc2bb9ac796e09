// Package database provides SQLite-based storage for pagebinder jobs.
//
// This package implements the JobDB, which stores one row per submitted job:
//   - identity (job ID, target, correlation token, site ID, domain)
//   - lifecycle status and timestamps
//   - the full job outcome as JSON (crawl stats, sizes, upload response)
//
// Design decision: We use SQLite (via modernc.org/sqlite) because the ledger
// is a single local file and the CGO-free driver keeps cross-compilation
// simple. WAL mode lets the API read job status while workers write.
//
// No crawl state is stored. A crawl can never be resumed from the ledger;
// it only answers "what happened to job X".
package database
