package wire

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRoundTrip(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := Record{
		Name:      "cpu",
		Labels:    map[string]string{"host": "h0"},
		Variables: map[string]float64{"u": 1.5},
		Timestamp: ts,
	}

	internal := r.ToRecord()
	back := FromRecord(internal)

	assert.Equal(t, r.Name, back.Name)
	assert.Equal(t, r.Labels, back.Labels)
	assert.Equal(t, r.Variables, back.Variables)
	assert.True(t, r.Timestamp.Equal(back.Timestamp))
}

func TestLeafConditionRoundTrip(t *testing.T) {
	c := Condition{
		Kind: "leaf",
		LHS:  Atom{Kind: "label_key", Str: "host"},
		Op:   "eq",
		RHS:  Atom{Kind: "label_value", Str: "h0"},
	}

	cond, err := c.ToCondition()
	require.NoError(t, err)
	assert.NotNil(t, cond)
}

func TestNestedAndOrConditionRoundTrip(t *testing.T) {
	raw := []byte(`{
		"kind": "and",
		"left": {"kind": "leaf", "lhs": {"kind":"label_key","str":"host"}, "op":"eq", "rhs": {"kind":"label_value","str":"h0"}},
		"right": {
			"kind": "or",
			"left":  {"kind": "leaf", "lhs": {"kind":"label_key","str":"env"}, "op":"eq", "rhs": {"kind":"label_value","str":"prod"}},
			"right": {"kind": "leaf", "lhs": {"kind":"label_key","str":"env"}, "op":"eq", "rhs": {"kind":"label_value","str":"dev"}}
		}
	}`)

	var c Condition
	require.NoError(t, json.Unmarshal(raw, &c))

	cond, err := c.ToCondition()
	require.NoError(t, err)
	assert.NotNil(t, cond)
}

func TestDecodeOperationWrite(t *testing.T) {
	raw := []byte(`{"kind":"write","write":{"record":{"name":"cpu","labels":{"host":"h0"},"variables":{"u":1.0},"timestamp":"2024-01-01T00:00:00Z"}}}`)

	op, err := DecodeOperation(raw)
	require.NoError(t, err)
	require.NotNil(t, op.Write)
	assert.Equal(t, "cpu", op.Write.Record.Name)
}

func TestDecodeOperationMalformedJSON(t *testing.T) {
	_, err := DecodeOperation([]byte(`not json`))
	assert.Error(t, err)
}

func TestUnknownAtomKindErrors(t *testing.T) {
	c := Condition{Kind: "leaf", LHS: Atom{Kind: "bogus"}, Op: "eq", RHS: Atom{Kind: "label_value", Str: "x"}}
	_, err := c.ToCondition()
	assert.Error(t, err)
}

func TestUnknownOpErrors(t *testing.T) {
	c := Condition{
		Kind: "leaf",
		LHS:  Atom{Kind: "label_key", Str: "host"},
		Op:   "bogus",
		RHS:  Atom{Kind: "label_value", Str: "h0"},
	}
	_, err := c.ToCondition()
	assert.Error(t, err)
}
