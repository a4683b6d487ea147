package model

// Document is a JSON record whose root object carries an _id and a _type.
type Document Object

// ID returns the document identifier.
func (d Document) ID() string { return Object(d).String("_id") }

// Type returns the declared document type.
func (d Document) Type() string { return Object(d).String("_type") }

// Root returns the document as a Value for traversal.
func (d Document) Root() Object { return Object(d) }

// MarshalJSON implements json.Marshaler.
func (d Document) MarshalJSON() ([]byte, error) { return Object(d).MarshalJSON() }

// ParseDocument decodes a JSON object into a Document.
func ParseDocument(data []byte) (Document, error) {
	obj, err := ParseObject(data)
	if err != nil {
		return nil, err
	}

	return Document(obj), nil
}

// MigrationContext is passed unchanged to every hook of a migration. The
// engine never reads it.
type MigrationContext struct {
	DryRun    bool
	ProjectID string
	Dataset   string
	Values    map[string]any
}
