package artifact

import (
	"strconv"

	apperrors "github.com/Aman-CERP/artifactindex/internal/errors"
)

// KeyField is the exact-match identifier field present on every document.
// It is stored verbatim and is the only update/delete key.
const KeyField = "Id"

// DocField is one stored value of a Document.
type DocField struct {
	Name  string
	Value string
	// Tokenized fields are analyzed into searchable terms; the rest match
	// only as a whole.
	Tokenized bool
}

// Document is the flat engine-side form of an Artifact.
type Document struct {
	Fields []DocField
}

// Get returns the first value stored under name.
func (d Document) Get(name string) (string, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// ID returns the document's key value.
func (d Document) ID() string {
	v, _ := d.Get(KeyField)
	return v
}

// Values returns the stored values keyed by field name.
func (d Document) Values() map[string]string {
	out := make(map[string]string, len(d.Fields))
	for _, f := range d.Fields {
		if _, dup := out[f.Name]; !dup {
			out[f.Name] = f.Value
		}
	}
	return out
}

// KeyOf renders an artifact identifier as its key value.
func KeyOf(id int) string {
	return strconv.Itoa(id)
}

// ToDocument maps a to a Document: the KeyField first, then one tokenized
// field per indexed schema field.
func ToDocument(a *Artifact) Document {
	fields := make([]DocField, 0, len(indexed)+1)
	fields = append(fields, DocField{Name: KeyField, Value: KeyOf(a.ID)})
	for _, f := range indexed {
		fields = append(fields, DocField{
			Name:      f.Name,
			Value:     f.render(a),
			Tokenized: true,
		})
	}
	return Document{Fields: fields}
}

// FromDocument maps a Document back to an Artifact. A missing field leaves
// the zero value; a present value that does not parse fails the whole
// conversion.
func FromDocument(doc Document) (Artifact, error) {
	return FromValues(doc.Values())
}

// FromValues is FromDocument over a name-to-value map, as returned by the
// engine's stored-field lookup.
func FromValues(values map[string]string) (Artifact, error) {
	var a Artifact
	for _, f := range indexed {
		raw, ok := values[f.Name]
		if !ok {
			continue
		}
		if err := f.parse(&a, raw); err != nil {
			return Artifact{}, apperrors.MappingError(f.Name, raw, err)
		}
	}

	if raw, ok := values[KeyField]; ok {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return Artifact{}, apperrors.MappingError(KeyField, raw, err)
		}
		a.ID = id
	}

	return a, nil
}
