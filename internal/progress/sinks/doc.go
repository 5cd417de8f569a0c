// Package sinks implements the consumers of rendered progress lines: console
// writers, a structured log forwarder, a buffer flushed on the final line, a
// fan-out multiplexer, a colored console writer and an in-memory status
// board. Every sink satisfies progress.Sink and serializes its own writes so
// it can be shared by concurrently monitored tasks.
package sinks
