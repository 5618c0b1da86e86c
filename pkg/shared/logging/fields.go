// Package logging provides a standard-fields builder used across the
// orchestrator on top of go-logr/logr, plus a constructor for a zap-backed
// logr.Logger so components hold a logr.Logger handle rather than
// importing a concrete logging package (Design Note: replace singletons for
// store access with explicit handles).
package logging

import (
	"time"
)

// Fields is an accumulator of structured logging key/value pairs (a map, so
// the pairs carry no order).
// It mirrors logrus.Fields in shape so ToLogrus() is a zero-cost conversion,
// while staying independent of any one logging backend.
type Fields map[string]interface{}

// NewFields returns an empty Fields map.
func NewFields() Fields {
	return Fields{}
}

// Component records which subsystem emitted the log line.
func (f Fields) Component(name string) Fields {
	f["component"] = name
	return f
}

// Operation records the logical operation in progress.
func (f Fields) Operation(op string) Fields {
	f["operation"] = op
	return f
}

// Resource records the type (and, when known, name) of the resource the
// operation concerns, e.g. Resource("ingest_item", itemID).
func (f Fields) Resource(resourceType, resourceName string) Fields {
	f["resource_type"] = resourceType
	if resourceName != "" {
		f["resource_name"] = resourceName
	}
	return f
}

// Duration records an elapsed time in milliseconds.
func (f Fields) Duration(d time.Duration) Fields {
	f["duration_ms"] = d.Milliseconds()
	return f
}

// Error records err.Error() when err is non-nil; a nil err leaves Fields
// unchanged so callers can unconditionally chain .Error(err).
func (f Fields) Error(err error) Fields {
	if err != nil {
		f["error"] = err.Error()
	}
	return f
}

// UserID records the acting operator, when known.
func (f Fields) UserID(id string) Fields {
	if id != "" {
		f["user_id"] = id
	}
	return f
}

// RequestID records a correlation id for an inbound request.
func (f Fields) RequestID(id string) Fields {
	if id != "" {
		f["request_id"] = id
	}
	return f
}

// TraceID records an OpenTelemetry trace id for cross-referencing spans.
func (f Fields) TraceID(id string) Fields {
	if id != "" {
		f["trace_id"] = id
	}
	return f
}

// StatusCode records an HTTP status code.
func (f Fields) StatusCode(code int) Fields {
	f["status_code"] = code
	return f
}

// Method records an HTTP method.
func (f Fields) Method(method string) Fields {
	f["method"] = method
	return f
}

// URL records a request URL.
func (f Fields) URL(url string) Fields {
	f["url"] = url
	return f
}

// Count records a generic integer count (items processed, rows affected).
func (f Fields) Count(n int) Fields {
	f["count"] = n
	return f
}

// Size records a byte size.
func (f Fields) Size(bytes int64) Fields {
	f["size_bytes"] = bytes
	return f
}

// Version records a semantic version string.
func (f Fields) Version(v string) Fields {
	f["version"] = v
	return f
}

// Custom attaches an arbitrary key/value pair not covered by a named
// accessor above.
func (f Fields) Custom(key string, value interface{}) Fields {
	f[key] = value
	return f
}

// ToLogrus converts Fields to logrus.Fields without copying the map type
// (logrus.Fields is itself map[string]interface{}), for the one subsystem
// (pkg/ekn/embedding/retry.go) that logs through *logrus.Logger directly.
func (f Fields) ToLogrus() map[string]interface{} {
	return map[string]interface{}(f)
}

// DatabaseFields returns the standard field set for a relational-store
// operation.
func DatabaseFields(operation, table string) Fields {
	return NewFields().Component("database").Operation(operation).Resource("table", table)
}

// HTTPFields returns the standard field set for an outbound or inbound HTTP
// call.
func HTTPFields(method, url string, statusCode int) Fields {
	return NewFields().Component("http").Method(method).URL(url).StatusCode(statusCode)
}

// WorkflowFields returns the standard field set for a pipeline-run
// operation (named "workflow" for continuity with the teacher's own field
// vocabulary).
func WorkflowFields(operation, runID string) Fields {
	return NewFields().Component("workflow").Operation(operation).Resource("workflow", runID)
}

// StageFields returns the standard field set for a stage-job operation.
func StageFields(stageName string, stageIndex int, runID string) Fields {
	return NewFields().
		Component("stage").
		Operation(stageName).
		Resource("pipeline_run", runID).
		Custom("stage_index", stageIndex)
}

// GraphFields returns the standard field set for a graph-assembly phase.
func GraphFields(phase, database string) Fields {
	return NewFields().Component("graph").Operation(phase).Resource("database", database)
}
