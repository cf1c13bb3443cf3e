package artifact

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Kind is the declared type of a schema field.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindDecimal
	// KindList fields are collections and are never indexed.
	KindList
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindDecimal:
		return "decimal"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Field declares one Artifact member: its index name, kind, and how to
// render it to text and parse it back.
type Field struct {
	Name string
	Kind Kind

	render func(*Artifact) string
	parse  func(*Artifact, string) error
}

// Indexable reports whether the field participates in the index.
func (f Field) Indexable() bool {
	return f.Kind != KindList && f.render != nil && f.parse != nil
}

// Render returns the field's value on a as text.
func (f Field) Render(a *Artifact) string {
	if f.render == nil {
		return ""
	}
	return f.render(a)
}

// Schema lists every Artifact member in declaration order.
var Schema = []Field{
	intField("id", func(a *Artifact) *int { return &a.ID }),
	stringField("name", func(a *Artifact) *string { return &a.Name }),
	stringField("category", func(a *Artifact) *string { return &a.Category }),
	stringField("culture", func(a *Artifact) *string { return &a.Culture }),
	stringField("origin", func(a *Artifact) *string { return &a.Origin }),
	stringField("description", func(a *Artifact) *string { return &a.Description }),
	stringField("materials", func(a *Artifact) *string { return &a.Materials }),
	intField("height", func(a *Artifact) *int { return &a.Height }),
	intField("width", func(a *Artifact) *int { return &a.Width }),
	stringField("circaDate", func(a *Artifact) *string { return &a.CircaDate }),
	stringField("culturalNotes", func(a *Artifact) *string { return &a.CulturalNotes }),
	stringField("seller", func(a *Artifact) *string { return &a.Seller }),
	stringField("sellerCity", func(a *Artifact) *string { return &a.SellerCity }),
	stringField("sellerCountry", func(a *Artifact) *string { return &a.SellerCountry }),
	decimalField("cost", func(a *Artifact) *decimal.Decimal { return &a.Cost }),
	stringField("yearCollected", func(a *Artifact) *string { return &a.YearCollected }),
	decimalField("estimatedValue", func(a *Artifact) *decimal.Decimal { return &a.EstimatedValue }),
	stringField("currentLocation", func(a *Artifact) *string { return &a.CurrentLocation }),
	stringField("destination", func(a *Artifact) *string { return &a.Destination }),
	{Name: "images", Kind: KindList},
	{Name: "tags", Kind: KindList},
}

// indexed and indexedNames are derived from Schema once; the indexed field
// set never changes at runtime.
var (
	indexed      = IndexableFields(Schema)
	indexedNames = names(indexed)
)

// IndexableFields filters fields down to the ones that are indexed.
func IndexableFields(fields []Field) []Field {
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		if f.Indexable() {
			out = append(out, f)
		}
	}
	return out
}

// Fields returns the indexed fields in schema order.
func Fields() []Field {
	return append([]Field(nil), indexed...)
}

// FieldNames returns the indexed field names in schema order.
// The returned slice is a copy.
func FieldNames() []string {
	return append([]string(nil), indexedNames...)
}

// IsField reports whether name is an indexed field.
func IsField(name string) bool {
	for _, n := range indexedNames {
		if n == name {
			return true
		}
	}
	return false
}

func names(fields []Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

func stringField(name string, ref func(*Artifact) *string) Field {
	return Field{
		Name:   name,
		Kind:   KindString,
		render: func(a *Artifact) string { return *ref(a) },
		parse: func(a *Artifact, raw string) error {
			*ref(a) = raw
			return nil
		},
	}
}

func intField(name string, ref func(*Artifact) *int) Field {
	return Field{
		Name:   name,
		Kind:   KindInt,
		render: func(a *Artifact) string { return strconv.Itoa(*ref(a)) },
		parse: func(a *Artifact, raw string) error {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return err
			}
			*ref(a) = n
			return nil
		},
	}
}

func decimalField(name string, ref func(*Artifact) *decimal.Decimal) Field {
	return Field{
		Name:   name,
		Kind:   KindDecimal,
		render: func(a *Artifact) string { return ref(a).String() },
		parse: func(a *Artifact, raw string) error {
			d, err := decimal.NewFromString(raw)
			if err != nil {
				return err
			}
			*ref(a) = d
			return nil
		},
	}
}
