// Package artifact manages the per-job directory that holds the raw and
// compact documents while a job runs.
//
// Design decision: each job gets its own directory named from its
// correlation token, a digest of that token and the job ID. The file names
// inside stay fixed, so concurrent jobs never share a path.
package artifact
