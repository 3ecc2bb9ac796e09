// Package pipeline provides a framework for executing job steps in sequence.
//
// A job goes through prepare, crawl, synthesize, reduce and deliver. Each
// stage is implemented as a Step that receives the job and records its
// outcome on it. Cleanup runs as a finalizer after every job, whether it
// succeeded, failed or was cancelled.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. It allows easy addition/removal of steps without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context for long-running crawls
//
// The Dispatcher runs submitted jobs in the background with a concurrency
// limit, and records status transitions in a JobStore.
package pipeline
