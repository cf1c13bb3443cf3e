package store

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/Aman-CERP/artifactindex/internal/artifact"
)

// SeqField holds each document's insertion sequence number. It is indexed
// with doc values for sorting and is not searchable through the composite
// field.
const SeqField = "seq"

// NewIndexMapping builds the static bleve mapping for artifact documents:
//   - artifact.KeyField: stored, keyword analyzer (exact match only)
//   - every name in fields: stored, standard analyzer
//   - SeqField: numeric, doc values only
//
// Unknown document fields are ignored.
func NewIndexMapping(fields []string) (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name
	im.StoreDynamic = false
	im.IndexDynamic = false
	im.DocValuesDynamic = false

	doc := bleve.NewDocumentStaticMapping()

	key := bleve.NewKeywordFieldMapping()
	key.Analyzer = keyword.Name
	key.Store = true
	key.IncludeInAll = false
	doc.AddFieldMappingsAt(artifact.KeyField, key)

	for _, name := range fields {
		text := bleve.NewTextFieldMapping()
		text.Analyzer = standard.Name
		text.Store = true
		text.IncludeInAll = true
		text.IncludeTermVectors = false
		doc.AddFieldMappingsAt(name, text)
	}

	seq := bleve.NewNumericFieldMapping()
	seq.Store = false
	seq.IncludeInAll = false
	seq.DocValues = true
	doc.AddFieldMappingsAt(SeqField, seq)

	im.DefaultMapping = doc

	if err := im.Validate(); err != nil {
		return nil, fmt.Errorf("invalid index mapping: %w", err)
	}
	return im, nil
}

// EngineDocument converts a mapped artifact document into the value bleve
// indexes, tagging it with its insertion sequence number.
func EngineDocument(doc artifact.Document, seq uint64) map[string]any {
	out := make(map[string]any, len(doc.Fields)+1)
	for _, f := range doc.Fields {
		if _, dup := out[f.Name]; !dup {
			out[f.Name] = f.Value
		}
	}
	out[SeqField] = float64(seq)
	return out
}
