package analysis

import "fmt"

// ValidationError reports missing or malformed caller input. No lookup or
// model call happens when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid request: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AmbiguousMatchError is returned under the unique match policy when more
// than one row matches a country/city pair.
type AmbiguousMatchError struct {
	Country string
	City    string
	Count   int
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("%d rows match %s, %s", e.Count, e.City, e.Country)
}

// DataUnavailableError means a dataset or model the operation needs was not
// loaded.
type DataUnavailableError struct {
	Resource string
	Err      error
}

func (e *DataUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s unavailable: %v", e.Resource, e.Err)
	}
	return e.Resource + " unavailable"
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Err
}

// ModelInvocationError wraps a failure raised by a model's predict call.
type ModelInvocationError struct {
	Model string
	Err   error
}

func (e *ModelInvocationError) Error() string {
	return fmt.Sprintf("%s model failed: %v", e.Model, e.Err)
}

func (e *ModelInvocationError) Unwrap() error {
	return e.Err
}

// UnmappedClusterError means the clusterer produced an id the severity
// table does not cover.
type UnmappedClusterError struct {
	Cluster int
}

func (e *UnmappedClusterError) Error() string {
	return fmt.Sprintf("cluster %d has no severity label", e.Cluster)
}
