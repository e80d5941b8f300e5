// Command labeldb is the process entry point: a single binary with one
// positional argument selecting "client" or "server" mode (spec.md §6),
// carrying forward main.rs's dispatch.
//
// Both modes read newline-delimited wire.Operation JSON from stdin and
// write replies to stdout against an engine rooted at DATAROOT. The
// line-oriented human command parser that would sit in front of "client"
// and the request/reply transport between a real client and server process
// are named out of scope in spec.md §1 as external collaborators; this
// binary only implements the side of that boundary the core spec defines —
// the wire.Operation shape and the engine itself — so "client" and "server"
// currently differ only in the log line they print on startup.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/labeldb/labeldb/engine"
	"github.com/labeldb/labeldb/wire"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: labeldb client|server")
		os.Exit(1)
	}

	dataRoot := os.Getenv("DATAROOT")
	if dataRoot == "" {
		fmt.Fprintln(os.Stderr, "labeldb: DATAROOT must be set")
		os.Exit(1)
	}

	e, err := engine.New(engine.WithDataRoot(dataRoot))
	if err != nil {
		log.Fatalf("labeldb: starting engine: %v", err)
	}
	e.Start()
	defer e.Close()

	switch os.Args[1] {
	case "server":
		log.Printf("labeldb: server mode, DATAROOT=%s", dataRoot)
	case "client":
		log.Printf("labeldb: client mode, DATAROOT=%s", dataRoot)
	default:
		fmt.Fprintln(os.Stderr, "usage: labeldb client|server")
		os.Exit(1)
	}

	if err := run(e, os.Stdin, os.Stdout); err != nil {
		log.Printf("labeldb: %v", err)
		os.Exit(1)
	}

	if err := e.Err(); err != nil {
		log.Printf("labeldb: fatal engine error: %v", err)
		os.Exit(1)
	}
}

// run reads one wire.Operation JSON value per line from in, executes it
// against e, and writes one JSON reply per line to out. A Write produces no
// reply line; a Select writes the matched records as a JSON array.
func run(e *engine.Engine, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	enc := json.NewEncoder(out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		op, err := wire.DecodeOperation(line)
		if err != nil {
			log.Printf("labeldb: skipping malformed operation: %v", err)
			continue
		}

		switch op.Kind {
		case "write":
			if op.Write == nil {
				log.Printf("labeldb: write operation missing record")
				continue
			}
			e.Write(op.Write.Record.ToRecord())
		case "select":
			if op.Select == nil {
				log.Printf("labeldb: select operation missing predicate")
				continue
			}
			cond, err := op.Select.Predicate.ToCondition()
			if err != nil {
				log.Printf("labeldb: malformed predicate: %v", err)
				if err := enc.Encode([]wire.Record{}); err != nil {
					return fmt.Errorf("writing reply: %w", err)
				}
				continue
			}

			data := e.Select(cond)
			results := make([]wire.Record, len(data))
			for i, r := range data {
				results[i] = wire.FromRecord(r)
			}
			if err := enc.Encode(results); err != nil {
				return fmt.Errorf("writing reply: %w", err)
			}
		default:
			log.Printf("labeldb: unknown operation kind %q", op.Kind)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading operations: %w", err)
	}

	return nil
}
