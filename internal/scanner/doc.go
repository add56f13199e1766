// Package scanner runs the SSTI injection and classification loop.
//
// A Scanner sends each payload of the corpus in order, one request at a time,
// and classifies the response:
//
//   - evaluated: the payload's expected value appears in the body. The scan
//     stops and reports a possible vulnerability.
//   - reflected: the raw payload appears unchanged. Logged, scan continues.
//   - not found: neither appears. Scan continues.
//
// Any request failure (timeout, connection error, HTTP 4xx/5xx) ends the scan
// with a negative result. The scanner never retries and never reports a
// vulnerability it did not observe.
package scanner
