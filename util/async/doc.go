// Package async provides a bounded-concurrency task queue and Future based async task results.
//
// Core types in this package are: [TaskQueue], [Future], [AwaitFutures].
//
// [TaskQueue] runs a fixed number of runners (goroutines) that execute submitted tasks in FIFO order.
// Use [NewTaskQueue] to create a new [TaskQueue], customize it with options like [WithQueueName],
// [WithMaxPending], [WithLogger] and [WithObserver]. Use [CalcPoolSize] to estimate the number of runners.
//
// [Future] represents the result of an async task, similar to Future in Java and Promise in Javascript.
//
// Use [Submit], [TaskQueue.Run] or [Run] to create an async task, and obtain task result through the returned [Future],
// e.g., [Future.Get] and [Future.TimedGet]. A failing or panicking task only settles its own Future with the error.
//
// For cases where you need to await for a group of Futures, use [NewAwaitFutures].
//
// See [SignalOnce] for one-time signal based communication, and [CapturePanic], [CapturePanicErr], [PanicSafeFunc]
// to capture potential panic in async task.
package async
