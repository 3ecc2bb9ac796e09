// Package main provides the entry point for the pagebinder CLI.
//
// pagebinder crawls a single website, binds the readable text of every page
// into one PDF, shrinks it, and hands the result to an upload destination.
//
// Usage:
//
//	pagebinder crawl <url>
//	pagebinder serve
//
// See --help for all available options.
package main

// main is the entry point for pagebinder.
func main() {
	Execute()
}
