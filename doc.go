// Package fence tracks the lifecycle of GPU fences in software.
//
// # Overview
//
// A native fence is a flag the GPU sets once submitted work completes. The
// native APIs leave most misuse undefined: waiting on a fence that was never
// submitted, resetting one that is still pending, or destroying one that the
// GPU may still write. [Fence] wraps one native handle and refuses those calls.
//
// # Lifecycle
//
//	New(signaled) ──► Unsignaled ──MarkSubmitted(e)──► Submitted(e)
//	                      ▲                                  │
//	                      │ Reset / MarkReset                │ WaitSignaled / CheckSignaled / MarkSignaled
//	                      │                                  ▼
//	                      └──────────────────────────── Signaled
//
// A fence may be destroyed (see [Fence.IntoInner] and [Fence.Destroy]) only
// while it is Unsignaled or Signaled.
//
// # Errors
//
// Two classes of failure are kept apart:
//   - Device failures ([ErrOutOfMemory], [ErrDeviceLost]) are returned as
//     errors from the operations that talk to the [Device].
//   - Calling an operation from the wrong state is a bug in the caller. It
//     panics with a [*ContractViolation] and is never returned as an error.
//
// # Trusted resynchronization
//
// Some transitions are made by someone else: the GPU signals a fence, or a
// subsystem resets many native fences in one batch. [Fence.Resync] returns a
// view whose Mark methods update the tracked state without touching the
// device. Each call site asserts the native object is already consistent.
//
// # Concurrency
//
// Fence is not safe for concurrent use. Exactly one owner drives a fence at a
// time; the queue subpackage provides that owner for a submission queue.
//
// # Backends
//
// Fence is generic over the native handle type. The halfence subpackage
// binds it to gogpu/wgpu HAL fences.
package fence
