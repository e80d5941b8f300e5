package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labeldb/labeldb/engine"
	"github.com/labeldb/labeldb/wire"
)

func TestRunExecutesWriteThenSelect(t *testing.T) {
	dir := t.TempDir()
	e, err := engine.New(engine.WithDataRoot(dir))
	require.NoError(t, err)
	e.Start()
	defer e.Close()

	writeLine, err := json.Marshal(wire.Operation{
		Kind: "write",
		Write: &wire.WriteOp{Record: wire.Record{
			Name:      "cpu",
			Labels:    map[string]string{"host": "h0"},
			Variables: map[string]float64{"u": 1.0},
		}},
	})
	require.NoError(t, err)

	selectLine, err := json.Marshal(wire.Operation{
		Kind: "select",
		Select: &wire.SelectOp{Predicate: wire.Condition{
			Kind: "leaf",
			LHS:  wire.Atom{Kind: "label_key", Str: "host"},
			Op:   "eq",
			RHS:  wire.Atom{Kind: "label_value", Str: "h0"},
		}},
	})
	require.NoError(t, err)

	// run the write on its own first: the writer task applies it
	// asynchronously off e.writeCh, and the reader task has no ordering
	// guarantee relative to it beyond the channel send itself, so the
	// select line is sent only after a short sleep that gives the writer
	// task time to apply the write.
	require.NoError(t, run(e, bytes.NewBuffer(append(writeLine, '\n')), &bytes.Buffer{}))
	time.Sleep(10 * time.Millisecond)

	var out bytes.Buffer
	require.NoError(t, run(e, bytes.NewBuffer(append(selectLine, '\n')), &out))

	var results []wire.Record
	require.NoError(t, json.Unmarshal(out.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "cpu", results[0].Name)
}

func TestRunSkipsMalformedOperationLine(t *testing.T) {
	dir := t.TempDir()
	e, err := engine.New(engine.WithDataRoot(dir))
	require.NoError(t, err)
	e.Start()
	defer e.Close()

	in := bytes.NewBufferString("not json\n")
	var out bytes.Buffer
	assert.NoError(t, run(e, in, &out))
}
