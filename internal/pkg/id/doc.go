// Package id generates identifiers for runs, event summaries and requests.
//
// Run and event IDs are UUID version 7, so they sort by creation time and
// keep the ClickHouse event table close to insertion order. Request IDs are
// 16 hex characters drawn from crypto/rand.
//
// All functions are safe for concurrent use.
package id
