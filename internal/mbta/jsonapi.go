package mbta

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// ErrMalformedDocument is returned when a response body is valid JSON but not the expected JSON:API shape.
var ErrMalformedDocument = errors.New("malformed JSON:API document")

// Document is a JSON:API top-level document.
type Document struct {
	Data     json.RawMessage `json:"data"`
	Included []Resource      `json:"included,omitempty"`
}

// Resource is a JSON:API resource object.
type Resource struct {
	Type          string                  `json:"type"`
	ID            string                  `json:"id"`
	Attributes    json.RawMessage         `json:"attributes"`
	Relationships map[string]Relationship `json:"relationships"`
}

// Relationship holds the linkage of one named relationship. Data is kept raw
// because it can be null, a single identifier or an array.
type Relationship struct {
	Data json.RawMessage `json:"data"`
}

// ResourceIdentifier references another resource by type and id.
type ResourceIdentifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Collection decodes a document whose primary data is an array.
func (d *Document) Collection() ([]Resource, error) {
	data := bytes.TrimSpace(d.Data)
	if len(data) == 0 || data[0] != '[' {
		return nil, errors.Wrap(ErrMalformedDocument, "primary data is not an array")
	}
	var out []Resource
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrapf(ErrMalformedDocument, "decoding resources: %v", err)
	}
	return out, nil
}

// Single decodes a document whose primary data is one resource object.
func (d *Document) Single() (Resource, error) {
	data := bytes.TrimSpace(d.Data)
	if len(data) == 0 || data[0] != '{' {
		return Resource{}, errors.Wrap(ErrMalformedDocument, "primary data is not an object")
	}
	var out Resource
	if err := json.Unmarshal(data, &out); err != nil {
		return Resource{}, errors.Wrapf(ErrMalformedDocument, "decoding resource: %v", err)
	}
	return out, nil
}

// DecodeAttributes unmarshals the attribute set into v.
func (r Resource) DecodeAttributes(v any) error {
	if len(bytes.TrimSpace(r.Attributes)) == 0 {
		return errors.Wrapf(ErrMalformedDocument, "%s %q has no attributes", r.Type, r.ID)
	}
	if err := json.Unmarshal(r.Attributes, v); err != nil {
		return errors.Wrapf(ErrMalformedDocument, "decoding attributes of %s %q: %v", r.Type, r.ID, err)
	}
	return nil
}

// Related returns the id referenced by a to-one relationship. It reports false
// when the relationship is absent, null or not a single identifier.
func (r Resource) Related(name string) (string, bool) {
	rel, ok := r.Relationships[name]
	if !ok {
		return "", false
	}
	data := bytes.TrimSpace(rel.Data)
	if len(data) == 0 || data[0] != '{' {
		return "", false
	}
	var id ResourceIdentifier
	if err := json.Unmarshal(data, &id); err != nil || id.ID == "" {
		return "", false
	}
	return id.ID, true
}
