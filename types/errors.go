package types

import "fmt"

// FetchError reports a failed resource transfer (network or local I/O).
type FetchError struct {
	Locator string
	Err     error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.Locator, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// NotFoundError reports an eviction or lookup miss for a cache key.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("no cache entry for %q", e.Key) }

// AssemblyError reports a media decode or mux failure. Fatal to the run.
type AssemblyError struct {
	Step string
	Err  error
}

func (e *AssemblyError) Error() string { return fmt.Sprintf("assembly %s: %v", e.Step, e.Err) }
func (e *AssemblyError) Unwrap() error { return e.Err }

// PublishError reports an upload or shared-link failure.
type PublishError struct {
	Op  string
	Err error
}

func (e *PublishError) Error() string { return fmt.Sprintf("publish %s: %v", e.Op, e.Err) }
func (e *PublishError) Unwrap() error { return e.Err }

// ConfigurationError reports a missing required credential or setting.
type ConfigurationError struct {
	Name string
}

func (e *ConfigurationError) Error() string { return fmt.Sprintf("missing configuration: %s", e.Name) }

// InvalidInputError reports a caller mistake that must be rejected up front,
// such as distributing audio time over zero clips.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string { return e.Reason }
