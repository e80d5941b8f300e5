// Package series implements the append-only column of records that share
// one identity key.
package series

import (
	"sync"

	"github.com/labeldb/labeldb/record"
)

// Payload is one sample's positional values plus its timestamp. Values are
// aligned with the owning Series' VarNames in order.
type Payload struct {
	Values []float64
	TsMs   int64
}

// Series is a durable grouping of records sharing one identity key. Its
// label set, name, and variable-name ordering are fixed at construction and
// never mutated; only the payload sequence grows.
//
// The payload slice is guarded by its own lock so an insert on one Series
// never stalls a read on another (spec.md §5: "per-series payload vector
// guarded by its own reader/writer lock").
type Series struct {
	ID       uint32
	Name     string
	Labels   map[string]string
	VarNames []string

	mu       sync.RWMutex
	payloads []Payload
}

// New creates an empty Series for id, grounded on the given record's name,
// labels, and variable-name ordering. The record itself is not appended;
// callers append it via Append.
func New(id uint32, r record.Record) *Series {
	return &Series{
		ID:       id,
		Name:     r.Name,
		Labels:   r.Labels,
		VarNames: record.VariableNames(r),
	}
}

// Restore rebuilds a Series directly from its decoded on-disk fields, used
// by the codec package's full unpack path. Unlike New, it takes payloads
// up front rather than building them one Append at a time.
func Restore(id uint32, name string, labels map[string]string, varNames []string, payloads []Payload) *Series {
	return &Series{
		ID:       id,
		Name:     name,
		Labels:   labels,
		VarNames: varNames,
		payloads: payloads,
	}
}

// Append pushes a new payload built from r, positionally aligned with the
// Series' VarNames. r must share the Series' identity key.
func (s *Series) Append(r record.Record) {
	values := make([]float64, len(s.VarNames))
	for i, name := range s.VarNames {
		values[i] = r.Variables[name]
	}

	s.mu.Lock()
	s.payloads = append(s.payloads, Payload{Values: values, TsMs: r.Timestamp.UnixMilli()})
	s.mu.Unlock()
}

// AppendPayload pushes a pre-built payload directly. The block codec does
// not use it: it rebuilds a Series from disk with Restore.
func (s *Series) AppendPayload(p Payload) {
	s.mu.Lock()
	s.payloads = append(s.payloads, p)
	s.mu.Unlock()
}

// Payloads returns a snapshot of the payload sequence in insertion order.
func (s *Series) Payloads() []Payload {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Payload, len(s.payloads))
	copy(out, s.payloads)

	return out
}

// Len returns the number of payloads currently stored.
func (s *Series) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.payloads)
}

// ToRecords decodes the payload sequence back into Records, in insertion
// order. Variable values are paired with VarNames positionally.
func (s *Series) ToRecords() []record.Record {
	payloads := s.Payloads()
	out := make([]record.Record, len(payloads))
	for i, p := range payloads {
		vars := make(map[string]float64, len(s.VarNames))
		for j, name := range s.VarNames {
			vars[name] = p.Values[j]
		}
		out[i] = record.New(s.Name, s.Labels, vars, msToTime(p.TsMs))
	}

	return out
}

// VariableIndex returns the positional index of name within VarNames, or -1
// if name is not one of this Series' variables.
func (s *Series) VariableIndex(name string) int {
	for i, n := range s.VarNames {
		if n == name {
			return i
		}
	}

	return -1
}
