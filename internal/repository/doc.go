// Package repository contains data access implementations for tofscope.
//
// Repositories persist runs and event summaries, abstracting the
// underlying data stores.
//
// # Data Stores
//
//   - PostgreSQL: runs and detector snapshots (clickhouse-free deployments keep working)
//   - ClickHouse: one row per processed event, queried for momentum statistics
//   - Redis: live per-run counters shared by API and worker processes
//
// Repository interfaces are defined where they are consumed, in the service
// package. All implementations are safe for concurrent use.
package repository
