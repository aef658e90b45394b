// Package query runs jq programs over a saved type database.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/itchyny/gojq"

	"elnino/internal/sink"
)

// Query is a parsed jq program.
type Query struct {
	src string
	q   *gojq.Query
}

// Parse compiles src.
func Parse(src string) (*Query, error) {
	q, err := gojq.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("invalid query %q: %w", src, err)
	}
	return &Query{src: src, q: q}, nil
}

func (q *Query) String() string { return q.src }

// Input turns a database into the plain JSON value tree gojq works on.
func Input(db *sink.Database) (any, error) {
	data, err := json.Marshal(db)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Run evaluates q against input and collects every result. The first
// runtime error stops evaluation.
func (q *Query) Run(ctx context.Context, input any) ([]any, error) {
	var out []any
	iter := q.q.Run(input)
	for {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return out, fmt.Errorf("query %q: %w", q.src, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// RunDatabase is Input followed by Run.
func (q *Query) RunDatabase(ctx context.Context, db *sink.Database) ([]any, error) {
	input, err := Input(db)
	if err != nil {
		return nil, err
	}
	return q.Run(ctx, input)
}

// Write prints results one per line, like jq. Strings are printed raw when
// raw is set.
func Write(w io.Writer, results []any, raw bool) error {
	for _, v := range results {
		if s, ok := v.(string); ok && raw {
			if _, err := fmt.Fprintln(w, s); err != nil {
				return err
			}
			continue
		}
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, string(data)); err != nil {
			return err
		}
	}
	return nil
}
