// Package service contains the event processing and run management logic of tofscope.
//
// Services coordinate the event accumulator, the momentum log and the
// repositories. They depend on repository interfaces defined in this package
// so that storage backends stay optional: a replay from the command line
// runs with nothing but the momentum log, while the API server adds
// PostgreSQL, ClickHouse, Redis and object storage.
//
// # Concurrency
//
// EventService and RunService are safe for concurrent use. The Runner gives
// every worker its own accumulator; the momentum log and run aggregators are
// shared and synchronised.
package service
