/*
Package core owns the multi-level staging structure and runs the
scheduler's admission, selection, reallocation, and dispatch loop.

A Core is built once per process from a capacity.Monitor and the three
pluggable strategies (queueselect.Selector, jobselect.Selector,
dispatch.Dispatcher); nothing here is safe for concurrent mutation,
matching the single-threaded cooperative model described in spec.md §5 —
one goroutine calls ConsumeMessage sequentially, and Reallocate runs
interleaved on that same goroutine via a select in the CLI's run loop,
never on its own.
*/
package core
