// Package server exposes the job submission API.
//
// POST /scrape validates a request, resolves its upload destination and
// queues a job, answering 202 right away. GET /jobs/{id} reports a job's
// status from the ledger. GET /health is a liveness probe.
package server
