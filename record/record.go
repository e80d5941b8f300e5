// Package record defines the immutable labeled sample and the identity-key
// function used to group samples into series.
package record

import (
	"sort"
	"strings"
	"time"
)

// Record is a single labeled, timestamped metric sample.
//
// A Record is immutable once constructed: New takes ownership of Labels
// and Variables without copying them, and they are never mutated afterward.
type Record struct {
	Name      string
	Labels    map[string]string
	Variables map[string]float64
	Timestamp time.Time
}

// New builds a Record, taking ownership of labels and variables.
// Callers must not mutate the maps after passing them in.
func New(name string, labels map[string]string, variables map[string]float64, ts time.Time) Record {
	return Record{
		Name:      name,
		Labels:    labels,
		Variables: variables,
		Timestamp: ts.UTC(),
	}
}

// IdentityKey computes the deterministic series-grouping key for r: the
// record name followed by each sorted label key/value pair, followed by
// each sorted variable name. Metric values are excluded; two samples of the
// same named metric at different timestamps share an identity key.
func IdentityKey(r Record) string {
	var b strings.Builder
	b.WriteString(r.Name)

	labelKeys := make([]string, 0, len(r.Labels))
	for k := range r.Labels {
		labelKeys = append(labelKeys, k)
	}
	sort.Strings(labelKeys)
	for _, k := range labelKeys {
		b.WriteString(k)
		b.WriteString(r.Labels[k])
	}

	varNames := make([]string, 0, len(r.Variables))
	for k := range r.Variables {
		varNames = append(varNames, k)
	}
	sort.Strings(varNames)
	for _, k := range varNames {
		b.WriteString(k)
	}

	return b.String()
}

// LabelTokens returns the "key=value" index tokens for r's labels, in no
// particular order.
func LabelTokens(r Record) []string {
	tokens := make([]string, 0, len(r.Labels))
	for k, v := range r.Labels {
		tokens = append(tokens, k+"="+v)
	}

	return tokens
}

// VariableNames returns the sorted variable names present in r. Sorting
// here fixes the positional order used by Series payloads.
func VariableNames(r Record) []string {
	names := make([]string, 0, len(r.Variables))
	for k := range r.Variables {
		names = append(names, k)
	}
	sort.Strings(names)

	return names
}

// Equal reports whether a and b have the same identity key, the same
// variable values, and the same timestamp.
func Equal(a, b Record) bool {
	if IdentityKey(a) != IdentityKey(b) || !a.Timestamp.Equal(b.Timestamp) {
		return false
	}
	if len(a.Variables) != len(b.Variables) {
		return false
	}
	for k, v := range a.Variables {
		bv, ok := b.Variables[k]
		if !ok || bv != v {
			return false
		}
	}

	return true
}
