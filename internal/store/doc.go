// Package store persists harness runs and their dispatch traces in SQLite.
//
// A run is identified by a UUIDv7, so ordering runs by id orders them by
// creation. Dispatches within a run are ordered by their logical sequence
// number, never by wall time, which keeps stored traces comparable across
// machines.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability and speed
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: dispatches are deleted with their run
package store
