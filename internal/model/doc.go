// Package model defines the core data structures used throughout sstiscan.
//
// This package contains the following main types:
//   - Payload: a static template-engine probe (engine, delimiters, raw string)
//   - ScanRequest: the request derived from one payload
//   - HeaderMap: request headers with the enforced User-Agent
//   - Attempt: the classification of one payload's response
//   - ScanResult: the immutable outcome of a whole scan
//
// Models live in their own package so that the scanner, report and database
// packages can share them without import cycles. All of them serialize to JSON
// for reports and history storage.
package model
