// Package database provides SQLite-based scan history for sstiscan.
//
// Every completed scan is stored as one row in the scan_results table,
// keyed by the scan's UUID. The full ScanResult is kept as JSON next to a few
// indexed columns (target, method, verdict, start time) so that history can be
// listed without decoding every result.
//
// SQLite is accessed through modernc.org/sqlite, which needs no CGO, and the
// database is a single file under the XDG data directory.
package database
