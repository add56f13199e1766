// Package main provides the entry point for the sstiscan CLI.
//
// sstiscan probes a single HTTP endpoint for Server-Side Template Injection by
// sending a fixed list of template expressions and checking whether the server
// rendered them.
//
// Usage:
//
//	sstiscan [flags] <url>
//	sstiscan history [url]
//
// See --help for all available options.
package main

// main is the entry point for sstiscan.
func main() {
	Execute()
}
