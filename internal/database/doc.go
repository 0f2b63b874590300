// Package database provides the SQLite archive of finished crawl reports.
//
// The archive is opt-in (scan --save) and write-only from the crawl's point
// of view: a run never reads earlier runs. The history command reads it.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database
