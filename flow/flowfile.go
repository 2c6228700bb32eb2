// Package flow adapts the classification service to a record based flow
// engine. The engine hands a FlowFile to Processor.OnTrigger and routes it by
// the returned Relationship; retries and rollback stay with the engine.
package flow

import (
	"github.com/google/uuid"
)

// FlowFile is one unit of work: opaque content plus string attributes.
type FlowFile struct {
	ID         string
	Attributes map[string]string
	Content    []byte
}

// NewFlowFile returns a FlowFile with a fresh id.
func NewFlowFile(content []byte, attributes map[string]string) *FlowFile {
	attrs := make(map[string]string, len(attributes))
	for k, v := range attributes {
		attrs[k] = v
	}
	return &FlowFile{
		ID:         uuid.New().String(),
		Attributes: attrs,
		Content:    content,
	}
}

// Attribute returns the named attribute and whether it is set and non empty.
func (f *FlowFile) Attribute(name string) (string, bool) {
	v, ok := f.Attributes[name]
	return v, ok && v != ""
}

// Clone copies the attributes; the content is shared.
func (f *FlowFile) Clone() *FlowFile {
	c := NewFlowFile(f.Content, f.Attributes)
	c.ID = f.ID
	return c
}
