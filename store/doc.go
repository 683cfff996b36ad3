// Package store is the persistence collaborator for the session engine.
//
// The Store interface exposes CRUD plus the three indexed lookups the engine
// depends on (session by join code, answers by session, answers by
// (session, question)) and two operations with stronger semantics:
//
//   - UpsertAnswer: composite-key upsert for the answer ledger, so a retried
//     or duplicate submission overwrites instead of double-counting.
//   - AdvanceSession: compare-and-set on the session's current-question
//     index, implemented as a single conditional update so exactly one of
//     any number of concurrent advance calls wins a given transition.
//
// PostgresStore is the production implementation (database/sql + lib/pq,
// schema created at startup). MemoryStore implements the same contract with
// mutex-guarded maps for tests and single-process demo runs.
package store
