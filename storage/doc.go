// Package storage persists numeric arrays and typed metadata in a container
// file addressed by folder and name.
//
// Every Manager operation holds the lock registry entry of the physical path
// for its whole duration: open, read or write, buffer flush and close. Two
// managers pointed at the same file are therefore fully serialized within a
// process (and across processes with WithFileLocks), which is stricter than
// guarding only the open and close transitions.
//
// Append buffers belong to the Manager that created them and are flushed
// when the buffer exceeds its size or when the file is closed. A Manager is
// meant to be used by one goroutine at a time; separate managers may be used
// concurrently.
package storage
