package scimdb

import (
	"time"
)

// Resource is the unit of storage: one identity object (a User, a Group,
// or a deployment-defined type) belonging to exactly one tenant.
type Resource struct {
	ID         ID                     `json:"id"`
	TenantID   string                 `json:"tenantID"`
	Type       string                 `json:"type"`
	Attributes map[string]interface{} `json:"attributes"`
	Meta       Meta                   `json:"meta"`
}

// Meta records the lifecycle of a resource.
type Meta struct {
	Created      time.Time    `json:"created"`
	LastModified time.Time    `json:"lastModified"`
	Version      VersionToken `json:"version,omitempty"`
}

// SetCreated sets the creation time.
func (m *Meta) SetCreated(now time.Time) {
	m.Created = now
}

// SetLastModified sets the last modification time.
func (m *Meta) SetLastModified(now time.Time) {
	m.LastModified = now
}

// Clone returns a deep copy of the resource. Attribute maps and nested
// slices are copied so callers can mutate the result freely.
func (r *Resource) Clone() *Resource {
	clone := *r
	if r.Attributes != nil {
		clone.Attributes = cloneAttributes(r.Attributes)
	}
	return &clone
}

func cloneAttributes(attrs map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(attrs))
	for k, v := range attrs {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch value := v.(type) {
	case map[string]interface{}:
		return cloneAttributes(value)
	case []interface{}:
		out := make([]interface{}, len(value))
		for i, e := range value {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// FindOptions represents options passed to all find methods with multiple results.
type FindOptions struct {
	Limit      int
	Offset     int
	Descending bool
}

// TimeGenerator represents a generator for now.
type TimeGenerator interface {
	// Now creates the generated time.
	Now() time.Time
}

// RealTimeGenerator will generate the real time.
type RealTimeGenerator struct{}

// Now returns the current time.
func (g RealTimeGenerator) Now() time.Time {
	return time.Now()
}
