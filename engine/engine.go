// Package engine wires the writer and reader tasks spec.md §4.9 and §5
// describe: one goroutine owns all inserts and flushes, one goroutine owns
// all select evaluation, and both share the active block behind a single
// reader/writer lock plus the catalog behind a second, separate lock.
package engine

import (
	"fmt"
	"log"
	"sync"

	"github.com/labeldb/labeldb/block"
	"github.com/labeldb/labeldb/catalog"
	"github.com/labeldb/labeldb/engineerr"
	"github.com/labeldb/labeldb/internal/options"
	"github.com/labeldb/labeldb/predicate"
	"github.com/labeldb/labeldb/record"
)

// SelectRequest is a query posted to the reader task; Reply receives
// exactly one record vector (possibly empty on a malformed predicate).
type SelectRequest struct {
	Predicate predicate.Condition
	Reply     chan []record.Record
}

// Engine is the running harness: one writer goroutine, one reader
// goroutine, a shared active block, and a shared catalog.
type Engine struct {
	cfg *config

	blockMu sync.RWMutex
	active  *block.Block

	catalogMu sync.Mutex
	cat       *catalog.BlockIndex

	writeCh  chan record.Record
	selectCh chan SelectRequest

	flushCount int

	fatalMu  sync.Mutex
	fatalErr error
}

// New constructs an Engine rooted at the configured DATAROOT, loading any
// existing catalog. It does not start the writer/reader goroutines — call
// Start for that.
func New(opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.dataRoot == "" {
		return nil, fmt.Errorf("engine: WithDataRoot is required")
	}

	cat, err := catalog.Load(cfg.dataRoot)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:      cfg,
		active:   block.New(),
		cat:      cat,
		writeCh:  make(chan record.Record, cfg.writeBuffer),
		selectCh: make(chan SelectRequest),
	}, nil
}

// Start spawns the writer and reader goroutines. Both block on their
// inbound channel until Write/Select sends a message, or the channel is
// closed (Close), which terminates the corresponding task (spec.md §5).
func (e *Engine) Start() {
	go e.writerLoop()
	go e.readerLoop()
}

// Close closes both inbound channels, terminating the writer and reader
// tasks. The engine does not wait for them to drain; callers that need that
// should stop sending before calling Close and then synchronize separately.
func (e *Engine) Close() {
	close(e.writeCh)
	close(e.selectCh)
}

// Write enqueues r for the writer task. It never blocks on the task itself,
// only on the write channel's buffer (spec.md §5's one backpressure point).
func (e *Engine) Write(r record.Record) {
	e.writeCh <- r
}

// Select posts a query to the reader task and blocks for its reply.
func (e *Engine) Select(c predicate.Condition) []record.Record {
	reply := make(chan []record.Record, 1)
	e.selectCh <- SelectRequest{Predicate: c, Reply: reply}

	return <-reply
}

// Err returns the error that terminated the writer task, if any. A flush
// failure (IOFailure) is fatal per spec.md §7: the writer task surfaces it
// by terminating rather than retrying.
func (e *Engine) Err() error {
	e.fatalMu.Lock()
	defer e.fatalMu.Unlock()

	return e.fatalErr
}

func (e *Engine) setFatal(err error) {
	e.fatalMu.Lock()
	e.fatalErr = err
	e.fatalMu.Unlock()
}

func (e *Engine) writerLoop() {
	for r := range e.writeCh {
		e.blockMu.Lock()

		e.active.Insert(r)
		e.flushCount++

		if e.flushCount%e.cfg.flushFrequency == 0 {
			e.catalogMu.Lock()
			_, err := e.cat.Update(e.active, e.cfg.codecOpts...)
			e.catalogMu.Unlock()

			if err != nil {
				e.blockMu.Unlock()
				log.Printf("engine: flush failed, terminating writer task: %v", err)
				e.setFatal(fmt.Errorf("%w: %v", engineerr.ErrIOFailure, err))

				return
			}
		}

		e.blockMu.Unlock()
	}
}

func (e *Engine) readerLoop() {
	for req := range e.selectCh {
		e.blockMu.RLock()

		rs, err := predicate.Eval(req.Predicate, e.active)
		if err != nil {
			e.blockMu.RUnlock()
			req.Reply <- []record.Record{}

			continue
		}

		data := rs.Unpack(e.active).Data()
		e.blockMu.RUnlock()

		req.Reply <- data
	}
}
