// Package diagnostics backs the doctor command and crash reporting: host
// information through gopsutil, a set of health probes, and a crash writer
// that records a panic in the chat UI before the terminal is restored.
package diagnostics
