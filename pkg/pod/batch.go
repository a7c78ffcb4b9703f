package pod

import (
	"fmt"
	"time"

	"github.com/DUNE-DAQ/dtpctrllibs/pkg/log"
	"github.com/DUNE-DAQ/dtpctrllibs/pkg/transport"
)

// queued is one operation held by a Batch. out is set for reads.
type queued struct {
	op   transport.Op
	node transport.Node
	out  *transport.ValWord
}

// Batch queues register operations against one device until Flush.
//
// Nodes are resolved when an operation is queued, so a bad path fails
// early, but nothing reaches the transport before Flush. Operations left
// behind by a failed step are dropped with Discard.
//
// A Batch is not safe for concurrent use; it belongs to the single command
// path that owns the device session.
type Batch struct {
	dev     transport.Device
	trace   *log.Tracer
	nodes   map[string]transport.Node
	pending []queued
	step    string
}

// NewBatch creates a Batch on dev. trace may be nil.
func NewBatch(dev transport.Device, trace *log.Tracer) *Batch {
	return &Batch{
		dev:   dev,
		trace: trace,
		nodes: make(map[string]transport.Node),
	}
}

// Device returns the underlying device.
func (b *Batch) Device() transport.Device { return b.dev }

// SetStep labels subsequent operations in the trace.
func (b *Batch) SetStep(step string) { b.step = step }

// Step returns the current step label.
func (b *Batch) Step() string { return b.step }

func (b *Batch) node(path string) (transport.Node, error) {
	if n, ok := b.nodes[path]; ok {
		return n, nil
	}
	n, err := b.dev.Node(path)
	if err != nil {
		return nil, err
	}
	b.nodes[path] = n
	return n, nil
}

// Write queues a write of value to path.
func (b *Batch) Write(path string, value uint32) error {
	n, err := b.node(path)
	if err != nil {
		return err
	}
	b.pending = append(b.pending, queued{
		op:   transport.Op{Kind: transport.OpWrite, Path: path, Value: value},
		node: n,
	})
	b.trace.Register(b.step, log.AccessWrite, path, value)
	return nil
}

// Read queues a read of path. The returned word is filled by the Flush
// that carries the read.
func (b *Batch) Read(path string) (*transport.ValWord, error) {
	n, err := b.node(path)
	if err != nil {
		return nil, err
	}
	out := transport.NewValWord(path)
	b.pending = append(b.pending, queued{
		op:   transport.Op{Kind: transport.OpRead, Path: path},
		node: n,
		out:  out,
	})
	b.trace.Register(b.step, log.AccessRead, path, 0)
	return out, nil
}

// Pending returns a copy of the operations queued since the last flush.
func (b *Batch) Pending() []transport.Op {
	ops := make([]transport.Op, len(b.pending))
	for i, q := range b.pending {
		ops[i] = q.op
	}
	return ops
}

// Discard drops every queued operation and returns how many there were.
// Reads among them are never filled.
func (b *Batch) Discard() int {
	n := len(b.pending)
	b.pending = nil
	return n
}

// Flush hands every queued operation to the transport in order and
// dispatches. The queue is empty afterwards whether or not the dispatch
// succeeded; reads are filled only on success.
func (b *Batch) Flush() error {
	ops := b.pending
	b.pending = nil

	words := make([]*transport.ValWord, len(ops))
	for i, q := range ops {
		switch q.op.Kind {
		case transport.OpWrite:
			q.node.Write(q.op.Value)
		case transport.OpRead:
			words[i] = q.node.Read()
		}
	}

	start := time.Now()
	err := b.dev.Dispatch()
	b.trace.Dispatch(b.step, len(ops), time.Since(start), err != nil)
	if err != nil {
		return fmt.Errorf("dispatch of %d ops: %w", len(ops), err)
	}

	for i, q := range ops {
		if w := words[i]; q.out != nil && w != nil && w.Valid() {
			v, _ := w.Value()
			q.out.Set(v)
		}
	}
	return nil
}
