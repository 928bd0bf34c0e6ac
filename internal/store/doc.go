// Package store provides SQLite-backed data providers.
//
// All providers of one database share the records table, keyed by
// (source, id). Properties are stored as RFC 8785 canonical JSON, so the
// same record always produces the same bytes.
//
// # Query semantics
//
// Filters are compiled by querysql. Comparisons call relate_eq and
// relate_cmp, SQL functions registered on every connection that apply the
// loose equality and ordering of filter.Evaluate. A record matched by a
// filter in memory is therefore matched by the same filter in SQL.
//
// Unlike the in-memory evaluator, the store supports LIKE, using SQLite's
// case-insensitive ASCII matching.
//
// Sorting uses SQLite's native ordering of json_extract results: NULL
// before numbers before text. All queries end with ORDER BY id COLLATE
// BINARY for deterministic ties.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - Single connection: SQLite allows one writer at a time
package store
