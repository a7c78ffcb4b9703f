package sim

import (
	"fmt"
	"sort"
	"sync"

	"github.com/DUNE-DAQ/dtpctrllibs/pkg/transport"
)

// Record is one journaled operation.
type Record struct {
	transport.Op

	// Dispatch is the 1-based index of the dispatch that carried the op.
	Dispatch int
}

// Option configures a Backend.
type Option func(*Backend)

// WithAddressTable sets the registers (and their reset values) every
// simulated pod exposes.
func WithAddressTable(table map[string]uint32) Option {
	return func(b *Backend) {
		b.table = make(map[string]uint32, len(table))
		for k, v := range table {
			b.table[k] = v
		}
	}
}

// WithDispatchHook installs a function called, with the pod locked, after
// each successful dispatch. Use it to model free-running counters.
func WithDispatchHook(fn func(p *Pod)) Option {
	return func(b *Backend) { b.hook = fn }
}

// Backend is a transport.Backend serving simulated pods.
type Backend struct {
	mu         sync.Mutex
	table      map[string]uint32
	hook       func(p *Pod)
	pods       map[string]*Pod
	connectErr error
	connects   int
}

// NewBackend creates a backend.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		table: map[string]uint32{},
		pods:  map[string]*Pod{},
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// FailConnect makes subsequent Connect calls fail with err. nil clears it.
func (b *Backend) FailConnect(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connectErr = err
}

// Connects returns the number of Connect calls.
func (b *Backend) Connects() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connects
}

// Pod returns the simulated pod for id, or nil if it has never been opened.
func (b *Backend) Pod(id string) *Pod {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pods[id]
}

// Connect implements transport.Backend.
func (b *Backend) Connect(uri string, protocols ...string) (transport.Connections, error) {
	b.mu.Lock()
	b.connects++
	err := b.connectErr
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}

	cat, err := transport.LoadCatalogue(uri)
	if err != nil {
		return nil, err
	}
	return &connections{
		backend:   b,
		catalogue: cat,
		protocols: append([]string(nil), protocols...),
	}, nil
}

func (b *Backend) pod(id string) *Pod {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pods[id]
	if !ok {
		p = newPod(id, b.table, b.hook)
		b.pods[id] = p
	}
	return p
}

type connections struct {
	backend   *Backend
	catalogue *transport.Catalogue
	protocols []string
}

func (c *connections) Device(id string) (transport.Device, error) {
	if _, err := c.catalogue.Lookup(id, c.protocols...); err != nil {
		return nil, err
	}
	return &handle{pod: c.backend.pod(id)}, nil
}

func (c *connections) IDs() []string {
	var ids []string
	for _, e := range c.catalogue.Filter(c.protocols...) {
		ids = append(ids, e.ID)
	}
	return ids
}

// Pod is a simulated device: a register file plus a dispatch journal.
type Pod struct {
	mu         sync.Mutex
	id         string
	regs       map[string]uint32
	journal    []Record
	dispatches int
	faults     map[string]error
	hook       func(p *Pod)
}

func newPod(id string, table map[string]uint32, hook func(p *Pod)) *Pod {
	regs := make(map[string]uint32, len(table))
	for k, v := range table {
		regs[k] = v
	}
	return &Pod{
		id:     id,
		regs:   regs,
		faults: map[string]error{},
		hook:   hook,
	}
}

// ID returns the catalogue identifier.
func (p *Pod) ID() string { return p.id }

// Journal returns a copy of every dispatched operation in order.
func (p *Pod) Journal() []Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Record(nil), p.journal...)
}

// ClearJournal forgets recorded operations and resets the dispatch count.
func (p *Pod) ClearJournal() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.journal = nil
	p.dispatches = 0
}

// Dispatches returns the number of dispatches that reached the pod.
func (p *Pod) Dispatches() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dispatches
}

// Register returns the current value of path.
func (p *Pod) Register(path string) (uint32, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.regs[path]
	return v, ok
}

// SetRegister sets path directly, bypassing the journal.
// It must not be called from a dispatch hook; use Poke there.
func (p *Pod) SetRegister(path string, value uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.regs[path] = value
}

// Peek reads a register from inside a dispatch hook.
func (p *Pod) Peek(path string) uint32 { return p.regs[path] }

// Poke writes a register from inside a dispatch hook.
func (p *Pod) Poke(path string, value uint32) {
	if _, ok := p.regs[path]; ok {
		p.regs[path] = value
	}
}

// Paths returns the address table, sorted.
func (p *Pod) Paths() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	paths := make([]string, 0, len(p.regs))
	for k := range p.regs {
		paths = append(paths, k)
	}
	sort.Strings(paths)
	return paths
}

// FailOn makes any dispatch that reaches path fail with err. Operations
// queued before it in the same dispatch are applied. nil clears the fault.
func (p *Pod) FailOn(path string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		delete(p.faults, path)
		return
	}
	p.faults[path] = err
}

// RemoveNode drops path from the address table.
func (p *Pod) RemoveNode(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.regs, path)
}

func (p *Pod) hasNode(path string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.regs[path]
	return ok
}

type queued struct {
	op  transport.Op
	out *transport.ValWord
}

func (p *Pod) apply(queue []queued) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.dispatches++
	for _, q := range queue {
		if err, ok := p.faults[q.op.Path]; ok {
			return fmt.Errorf("dispatch %d: %s %s: %w", p.dispatches, q.op.Kind, q.op.Path, err)
		}
		switch q.op.Kind {
		case transport.OpWrite:
			p.regs[q.op.Path] = q.op.Value
		case transport.OpRead:
			v := p.regs[q.op.Path]
			q.out.Set(v)
			q.op.Value = v
		}
		p.journal = append(p.journal, Record{Op: q.op, Dispatch: p.dispatches})
	}
	if p.hook != nil {
		p.hook(p)
	}
	return nil
}

// handle is one open transport.Device on a pod.
type handle struct {
	mu     sync.Mutex
	pod    *Pod
	queue  []queued
	closed bool
}

func (h *handle) ID() string { return h.pod.id }

func (h *handle) Node(path string) (transport.Node, error) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return nil, transport.ErrClosed
	}
	if !h.pod.hasNode(path) {
		return nil, fmt.Errorf("%w: %s", transport.ErrNodeNotFound, path)
	}
	return &node{h: h, path: path}, nil
}

func (h *handle) Dispatch() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return transport.ErrClosed
	}
	queue := h.queue
	h.queue = nil
	h.mu.Unlock()

	return h.pod.apply(queue)
}

func (h *handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.queue = nil
	return nil
}

func (h *handle) enqueue(q queued) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.queue = append(h.queue, q)
	}
}

type node struct {
	h    *handle
	path string
}

func (n *node) Path() string { return n.path }

func (n *node) Write(value uint32) {
	n.h.enqueue(queued{op: transport.Op{Kind: transport.OpWrite, Path: n.path, Value: value}})
}

func (n *node) Read() *transport.ValWord {
	v := transport.NewValWord(n.path)
	n.h.enqueue(queued{op: transport.Op{Kind: transport.OpRead, Path: n.path}, out: v})
	return v
}

// Compile-time interface satisfaction checks.
var (
	_ transport.Backend     = (*Backend)(nil)
	_ transport.Connections = (*connections)(nil)
	_ transport.Device      = (*handle)(nil)
	_ transport.Node        = (*node)(nil)
)
