// Package search turns user input into bleve queries over the artifact
// index and runs them.
package search

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2/search/query"
	lru "github.com/hashicorp/golang-lru/v2"
)

// specialChars are the query-string operators. Literal recovery splits
// input on them.
const specialChars = `+-=&|><!(){}[]^"~*?:\/`

// parseResult is the outcome of parsing a query string: either parsed or
// needsEscaping.
type parseResult interface {
	parseResult()
}

type parsed struct {
	query query.Query
}

type needsEscaping struct {
	reason error
}

func (parsed) parseResult()        {}
func (needsEscaping) parseResult() {}

// parse parses s with bleve's query-string syntax. bleve keeps operator
// characters it does not understand inside terms, so "(mask*" parses as a
// wildcard no indexed term can match. Such clauses, and clauses made only of
// wildcards, are rejected like syntax errors.
func parse(s string) parseResult {
	q, err := query.NewQueryStringQuery(s).Parse()
	if err != nil {
		return needsEscaping{reason: err}
	}
	if clause, ok := unsearchable(q); ok {
		return needsEscaping{reason: fmt.Errorf("clause %q cannot be searched as written", clause)}
	}
	return parsed{query: q}
}

// unsearchable finds the first leaf clause that would match every term or
// that still holds operator characters.
func unsearchable(q query.Query) (string, bool) {
	var children []query.Query
	switch v := q.(type) {
	case *query.BooleanQuery:
		children = []query.Query{v.Must, v.Should, v.MustNot}
	case *query.ConjunctionQuery:
		children = v.Conjuncts
	case *query.DisjunctionQuery:
		children = v.Disjuncts
	case *query.WildcardQuery:
		return v.Wildcard, strings.Trim(v.Wildcard, "*?") == "" || hasOperator(v.Wildcard)
	case *query.PrefixQuery:
		return v.Prefix, v.Prefix == "" || hasOperator(v.Prefix)
	case *query.MatchQuery:
		return v.Match, hasOperator(v.Match)
	}
	for _, c := range children {
		if c == nil {
			continue
		}
		if clause, ok := unsearchable(c); ok {
			return clause, true
		}
	}
	return "", false
}

// hasOperator reports whether s holds an operator character other than the
// wildcards.
func hasOperator(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool {
		return r != '*' && r != '?' && strings.ContainsRune(specialChars, r)
	})
}

// literal builds a query from the plain words of s, without operators or
// wildcards. Each word is analyzed like indexed text, so "(mask*" matches
// "Mask". Input with no words matches nothing.
func literal(s string) query.Query {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(specialChars, r)
	})
	if len(words) == 0 {
		return query.NewMatchNoneQuery()
	}
	clauses := make([]query.Query, len(words))
	for i, w := range words {
		clauses[i] = query.NewMatchQuery(w)
	}
	return query.NewDisjunctionQuery(clauses)
}

type cacheKey struct {
	field string
	query string
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithCacheSize sets the number of built queries kept. Zero disables caching.
func WithCacheSize(n int) BuilderOption {
	return func(b *Builder) {
		b.cacheSize = n
	}
}

// WithBuilderLogger sets the logger.
func WithBuilderLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Builder builds engine queries from normalized query strings. Built
// queries are shared between callers and must not be modified.
type Builder struct {
	fields    []string
	cacheSize int
	cache     *lru.Cache[cacheKey, query.Query]
	logger    *slog.Logger
}

// NewBuilder creates a builder whose multi-field queries span fields.
func NewBuilder(fields []string, opts ...BuilderOption) (*Builder, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("query builder needs at least one field")
	}
	b := &Builder{
		fields:    append([]string(nil), fields...),
		cacheSize: 256,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.cacheSize < 0 {
		return nil, fmt.Errorf("invalid query cache size %d", b.cacheSize)
	}
	if b.cacheSize > 0 {
		cache, err := lru.New[cacheKey, query.Query](b.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create query cache: %w", err)
		}
		b.cache = cache
	}
	return b, nil
}

// Fields returns the multi-field search fields.
func (b *Builder) Fields() []string {
	return append([]string(nil), b.fields...)
}

// Build returns the query for a normalized query string. With a field, every
// unqualified clause is bound to it; without one, every unqualified clause
// becomes a disjunction over all fields. Build never fails: input the parser
// rejects, or that holds a clause matching every term, falls back to an
// analyzed match on its plain words.
func (b *Builder) Build(normalized, field string) query.Query {
	key := cacheKey{field: field, query: normalized}
	if b.cache != nil {
		if q, ok := b.cache.Get(key); ok {
			return q
		}
	}

	q := b.build(normalized, field)
	if b.cache != nil {
		b.cache.Add(key, q)
	}
	return q
}

func (b *Builder) build(normalized, field string) query.Query {
	s := strings.TrimSpace(normalized)

	var q query.Query
	switch r := parse(s).(type) {
	case parsed:
		q = r.query
	case needsEscaping:
		b.logger.Debug("query_literal_fallback",
			slog.String("query", s),
			slog.String("error", r.reason.Error()))
		q = literal(s)
	}

	return b.rewrite(q, b.binder(field))
}

// binder returns how unqualified leaf clauses are rewritten.
func (b *Builder) binder(field string) func(query.FieldableQuery) query.Query {
	if field != "" {
		return func(leaf query.FieldableQuery) query.Query {
			leaf.SetField(field)
			return leaf
		}
	}
	return func(leaf query.FieldableQuery) query.Query {
		disjuncts := make([]query.Query, 0, len(b.fields))
		for _, name := range b.fields {
			c := copyLeaf(leaf)
			if c == nil {
				// Unknown leaf type: leave it on the composite field.
				return leaf
			}
			c.SetField(name)
			disjuncts = append(disjuncts, c)
		}
		return query.NewDisjunctionQuery(disjuncts)
	}
}

// rewrite walks a parsed query in place, lowercasing wildcard and prefix
// terms and rebinding unqualified leaves with bind.
func (b *Builder) rewrite(q query.Query, bind func(query.FieldableQuery) query.Query) query.Query {
	switch v := q.(type) {
	case *query.BooleanQuery:
		if v.Must != nil {
			v.Must = b.rewrite(v.Must, bind)
		}
		if v.Should != nil {
			v.Should = b.rewrite(v.Should, bind)
		}
		if v.MustNot != nil {
			v.MustNot = b.rewrite(v.MustNot, bind)
		}
		return v
	case *query.ConjunctionQuery:
		for i, c := range v.Conjuncts {
			v.Conjuncts[i] = b.rewrite(c, bind)
		}
		return v
	case *query.DisjunctionQuery:
		for i, d := range v.Disjuncts {
			v.Disjuncts[i] = b.rewrite(d, bind)
		}
		return v
	case query.FieldableQuery:
		switch leaf := v.(type) {
		case *query.WildcardQuery:
			leaf.Wildcard = strings.ToLower(leaf.Wildcard)
		case *query.PrefixQuery:
			leaf.Prefix = strings.ToLower(leaf.Prefix)
		}
		if v.Field() != "" {
			return v
		}
		return bind(v)
	default:
		return q
	}
}

// copyLeaf returns a shallow copy of a leaf query, or nil for types it does
// not know.
func copyLeaf(leaf query.FieldableQuery) query.FieldableQuery {
	switch v := leaf.(type) {
	case *query.MatchQuery:
		c := *v
		return &c
	case *query.MatchPhraseQuery:
		c := *v
		return &c
	case *query.WildcardQuery:
		c := *v
		return &c
	case *query.PrefixQuery:
		c := *v
		return &c
	case *query.RegexpQuery:
		c := *v
		return &c
	case *query.FuzzyQuery:
		c := *v
		return &c
	case *query.TermQuery:
		c := *v
		return &c
	case *query.NumericRangeQuery:
		c := *v
		return &c
	default:
		return nil
	}
}
