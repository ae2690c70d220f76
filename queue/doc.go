// Package queue provides the write queue that serializes mutations.
//
// The backend offers no transactions: a mutation reads a whole namespace,
// changes it in memory and writes it back. Two such cycles running at once
// would let the later writer silently discard the earlier one's change. The
// Queue prevents this by running tasks strictly one at a time, in submission
// order, on a single worker goroutine.
package queue
