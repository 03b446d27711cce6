// Package lock implements per-field locking for shared structures.
//
// # Overview
//
// Every field of a structure, addressed by (kind, index), has its own lock
// [Entry]. A worker that wants to run a critical section over several fields,
// possibly spanning several structures, builds a [Request] and hands it to
// [Manager.Acquire]. The returned [Guard] releases everything on
// [Guard.Release]; [Manager.Do] wraps both around a function.
//
// Locks are exclusive and reentrant: the owning worker may acquire an entry
// again (nested lock blocks) and must release it as many times.
//
// # Components
//
//   - [Table]           - the per-structure set of entries, one per field per kind.
//   - [Entry]           - owner, hold count and a FIFO [WaitQueue] of parked waiters.
//   - [Request]         - a deduplicated set of [Key] values sorted in global order.
//   - [Manager]         - runs the acquisition protocol and parks workers through
//     a worker.Parker.
//   - [DependencyGraph] - wait-for bookkeeping used for inspection.
//
// # Acquisition Flow
//
// When [Manager.Acquire] is called:
//
//  1. Any invalid field in the request fails the call before an entry is touched.
//  2. The request is sorted by (structure id, kind, index) and deduplicated.
//  3. Entries are tried in that order. An uncontended or reentrant entry is
//     taken immediately; a contended one enqueues the worker and parks it
//     until the releasing owner hands the entry over.
//  4. If the worker's context ends while parked, the waiter is withdrawn and
//     every entry taken so far is released in reverse order.
//
// # Deadlock Freedom
//
// All workers acquire in the same global order, so any two requests that share
// entries meet them in the same sequence and no wait-for cycle can form.
// There is no detection or timeout path.
//
// # Invariants
//
//   - owner is none if and only if the hold count is zero.
//   - waiters are queued only while the entry has an owner.
//   - a release by a worker that is not the owner fails with NOT_OWNER and
//     changes nothing.
//   - a released entry with waiters is handed to the oldest waiter.
//   - a cancelled waiter is removed without touching owner or hold count and
//     is never handed ownership.
package lock
