// Package probe turns payloads into HTTP requests and sends them.
//
// It contains three pieces that run once per payload:
//   - ParseHeaders converts raw "Name: Value" strings into a HeaderMap and
//     enforces the configured User-Agent.
//   - Injector places the payload in the ssti_test query parameter (GET) or
//     form field (POST).
//   - Sender issues the request with a timeout, optional pacing and charset
//     decoding, and turns HTTP error statuses into errors.
package probe
