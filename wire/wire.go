// Package wire defines the JSON-tagged representation operations cross the
// client/engine boundary in (spec.md §6): an Operation is either a Write of
// a Record or a Select of a Predicate, and Record/Predicate use a stable
// tagged shape so the same structure round-trips through encoding/json.
package wire

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/labeldb/labeldb/predicate"
	"github.com/labeldb/labeldb/record"
)

// Operation is the tagged union a client sends the engine: exactly one of
// Write or Select is set, selected by Kind.
type Operation struct {
	Kind   string    `json:"kind"`
	Write  *WriteOp  `json:"write,omitempty"`
	Select *SelectOp `json:"select,omitempty"`
}

// WriteOp carries one Record to insert.
type WriteOp struct {
	Record Record `json:"record"`
}

// SelectOp carries one Predicate to evaluate.
type SelectOp struct {
	Predicate Condition `json:"predicate"`
}

// Record mirrors record.Record with a JSON-friendly timestamp.
type Record struct {
	Name      string             `json:"name"`
	Labels    map[string]string  `json:"labels"`
	Variables map[string]float64 `json:"variables"`
	Timestamp time.Time          `json:"timestamp"`
}

// ToRecord converts r to the engine's internal record.Record.
func (r Record) ToRecord() record.Record {
	return record.New(r.Name, r.Labels, r.Variables, r.Timestamp)
}

// FromRecord converts an internal record.Record to its wire form.
func FromRecord(r record.Record) Record {
	return Record{Name: r.Name, Labels: r.Labels, Variables: r.Variables, Timestamp: r.Timestamp}
}

// Atom mirrors predicate.Atom: exactly one of the four kinds, discriminated
// by Kind.
type Atom struct {
	Kind  string  `json:"kind"`
	Str   string  `json:"str,omitempty"`
	Value float64 `json:"value,omitempty"`
}

func (a Atom) toAtom() (predicate.Atom, error) {
	switch a.Kind {
	case "label_key":
		return predicate.LabelKeyAtom(a.Str), nil
	case "label_value":
		return predicate.LabelValueAtom(a.Str), nil
	case "variable":
		return predicate.VariableAtom(a.Str), nil
	case "metric":
		return predicate.MetricAtom(a.Value), nil
	default:
		return predicate.Atom{}, fmt.Errorf("wire: unknown atom kind %q", a.Kind)
	}
}

var opByName = map[string]predicate.Op{
	"eq":   predicate.Eq,
	"neq":  predicate.NEq,
	"gt":   predicate.Gt,
	"lt":   predicate.Lt,
	"gteq": predicate.GtEq,
	"lteq": predicate.LtEq,
}

// Condition is the JSON-tagged mirror of predicate.Condition: a Leaf, an
// And, or an Or, discriminated by Kind. And/Or nest recursively through the
// optional Left and Right pointers, so plain struct tags are enough for
// encoding/json; ToCondition checks that the fields Kind needs are present.
type Condition struct {
	Kind  string     `json:"kind"`
	LHS   Atom       `json:"lhs,omitempty"`
	Op    string     `json:"op,omitempty"`
	RHS   Atom       `json:"rhs,omitempty"`
	Left  *Condition `json:"left,omitempty"`
	Right *Condition `json:"right,omitempty"`
}

// ToCondition converts c to the engine's internal predicate.Condition.
func (c Condition) ToCondition() (predicate.Condition, error) {
	switch c.Kind {
	case "leaf":
		lhs, err := c.LHS.toAtom()
		if err != nil {
			return nil, err
		}
		rhs, err := c.RHS.toAtom()
		if err != nil {
			return nil, err
		}
		op, ok := opByName[c.Op]
		if !ok {
			return nil, fmt.Errorf("wire: unknown op %q", c.Op)
		}

		return predicate.Leaf{LHS: lhs, Op: op, RHS: rhs}, nil
	case "and":
		if c.Left == nil || c.Right == nil {
			return nil, fmt.Errorf("wire: and condition missing left/right")
		}
		left, err := c.Left.ToCondition()
		if err != nil {
			return nil, err
		}
		right, err := c.Right.ToCondition()
		if err != nil {
			return nil, err
		}

		return predicate.And{Left: left, Right: right}, nil
	case "or":
		if c.Left == nil || c.Right == nil {
			return nil, fmt.Errorf("wire: or condition missing left/right")
		}
		left, err := c.Left.ToCondition()
		if err != nil {
			return nil, err
		}
		right, err := c.Right.ToCondition()
		if err != nil {
			return nil, err
		}

		return predicate.Or{Left: left, Right: right}, nil
	default:
		return nil, fmt.Errorf("wire: unknown condition kind %q", c.Kind)
	}
}

// DecodeOperation parses a single JSON-encoded Operation.
func DecodeOperation(data []byte) (Operation, error) {
	var op Operation
	if err := json.Unmarshal(data, &op); err != nil {
		return Operation{}, fmt.Errorf("wire: decoding operation: %w", err)
	}

	return op, nil
}
