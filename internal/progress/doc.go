// Package progress defines the task model shared by every part of the
// monitoring pipeline: the Task state machine, the Event handed to hooks and
// formatters, the Sink contract that consumes rendered text, and a
// non-blocking Hub that serializes delivery to shared sinks when many tasks
// report concurrently.
package progress
