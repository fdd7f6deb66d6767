package types

import "fmt"

// FatalError is implemented by error kinds that must abort a running scan
// (LocatorFatal, WorkerFatal) as opposed to ones that are merely logged
// (FileIOError). Signature timeouts are not errors: they are recorded as
// ids in ScanResult.Timeouts.
type FatalError interface {
	error
	IsFatal() bool
}

// ConfigurationError is raised from the Scanner façade before any worker
// starts; it never reaches the event loop.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("scan configuration error: %s", e.Reason)
}

// LocatorFatal wraps an OS error encountered while walking a directory
// tree. It is poisoned onto the work queue and surfaces as a
// FATAL_EXCEPTION event, aborting the scan.
type LocatorFatal struct {
	Path string
	Err  error
}

func (e *LocatorFatal) Error() string {
	return fmt.Sprintf("directory walk failed at %s: %v", e.Path, e.Err)
}

func (e *LocatorFatal) Unwrap() error { return e.Err }

func (e *LocatorFatal) IsFatal() bool { return true }

// FileIOError wraps an OS error opening or reading a single file. It
// surfaces as a non-fatal EXCEPTION event and the scan continues.
type FileIOError struct {
	Path string
	Err  error
}

func (e *FileIOError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Path, e.Err)
}

func (e *FileIOError) Unwrap() error { return e.Err }

// WorkerFatal represents an unexpected failure inside a scan worker outside
// normal file-read error handling. It surfaces as FATAL_EXCEPTION.
type WorkerFatal struct {
	WorkerIndex int
	Err         error
}

func (e *WorkerFatal) Error() string {
	return fmt.Sprintf("worker %d failed fatally: %v", e.WorkerIndex, e.Err)
}

func (e *WorkerFatal) Unwrap() error { return e.Err }

func (e *WorkerFatal) IsFatal() bool { return true }
