// Package isokit provides a high-level façade over the iso runtime, the
// context-assembly pipeline and the per-iso state stores, enabling rapid
// construction of autonomous tool-using agents. Most applications interact
// with this package by:
//  1. Creating an Engine via New() (optionally overriding default in-memory stores)
//  2. Spawning one or more named isos with a model and a set of adapters
//  3. Sending requests synchronously via Iso.Send
//
// The façade delegates turn execution to iso.Iso while keeping setup and
// usage ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply on-disk store paths and a
// structured logger.
package isokit

import (
	"fmt"
	"sync"

	"github.com/hupe1980/isokit/adapter"
	"github.com/hupe1980/isokit/config"
	"github.com/hupe1980/isokit/core"
	"github.com/hupe1980/isokit/facts"
	"github.com/hupe1980/isokit/history"
	"github.com/hupe1980/isokit/iso"
	"github.com/hupe1980/isokit/logging"
	"github.com/hupe1980/isokit/memory"
	"github.com/hupe1980/isokit/model"
	"github.com/hupe1980/isokit/pipeline"
	"github.com/hupe1980/isokit/task"
	"github.com/hupe1980/isokit/tool"
	"github.com/hupe1980/isokit/workspace"
)

// Options configures the Engine instance.
type Options struct {
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Engine manages a set of named isos. Each spawned iso owns private store
// instances; the engine only provides registration and lookup.
type Engine struct {
	opts   Options
	logger logging.Logger

	mu   sync.RWMutex
	isos map[string]*iso.Iso
}

// New creates a new Engine with optional overrides.
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Engine{
		opts:   opts,
		logger: opts.Logger,
		isos:   make(map[string]*iso.Iso),
	}
}

// SpawnOptions configures one iso created via Spawn.
type SpawnOptions struct {
	// Instruction is the system-slot instruction. Defaults to a minimal
	// identity prompt derived from the iso name.
	Instruction adapter.Instruction

	// Adapters are the tag-wrapped context adapters registered with the
	// assembler. When nil, Spawn wires the default set (timestamp, facts,
	// memory, tasks, history, and workspace when a root is given).
	Adapters []adapter.Adapter

	// WorkspaceRoot enables the sandboxed workspace plus its CRUD tools.
	WorkspaceRoot string

	// FactsPath, TasksPath and HistoryPath enable on-disk persistence for
	// the corresponding stores. Empty paths keep the stores in memory.
	FactsPath   string
	TasksPath   string
	HistoryPath string

	// Knowledge is an optional read-mostly second memory store queried
	// into the <knowledge> section.
	Knowledge core.MemoryStore

	// Tools extends the built-in tool set.
	Tools []tool.Tool

	// Iso forwards tuning options to the underlying runtime.
	Iso []func(o *iso.Options)
}

// Spawn creates, registers and returns a named iso backed by the given
// model. Spawning a name that already exists fails.
func (e *Engine) Spawn(name string, llm model.Model, optFns ...func(o *SpawnOptions)) (*iso.Iso, error) {
	if name == "" {
		return nil, fmt.Errorf("iso name must not be empty")
	}

	opts := SpawnOptions{
		Instruction: adapter.NewInstructionFromText(fmt.Sprintf("You are %s, an autonomous assistant.", name)),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	factStore, err := facts.NewStore(opts.FactsPath)
	if err != nil {
		return nil, fmt.Errorf("create fact store: %w", err)
	}

	taskStore, err := task.NewStore(opts.TasksPath)
	if err != nil {
		return nil, fmt.Errorf("create task store: %w", err)
	}

	historyStore, err := history.NewStore(opts.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("create history store: %w", err)
	}

	memoryStore := memory.NewInMemoryStore()

	var ws *workspace.Workspace
	if opts.WorkspaceRoot != "" {
		ws, err = workspace.New(opts.WorkspaceRoot)
		if err != nil {
			return nil, fmt.Errorf("create workspace: %w", err)
		}
	}

	assembler := pipeline.New(adapter.NewSystemAdapter(opts.Instruction), func(o *pipeline.Options) {
		o.Logger = e.logger
	})

	adapters := opts.Adapters
	if adapters == nil {
		adapters = defaultAdapters(ws != nil)
	}
	assembler.Register(adapters...)

	tools := make([]tool.Tool, 0, len(opts.Tools)+12)
	tools = append(tools, tool.MemoryTools(memoryStore)...)
	tools = append(tools, tool.FactTools(factStore)...)
	tools = append(tools, tool.TaskTools(taskStore)...)
	if ws != nil {
		tools = append(tools, tool.WorkspaceTools(ws)...)
	}
	tools = append(tools, opts.Tools...)

	isoFns := append([]func(o *iso.Options){func(o *iso.Options) {
		o.Facts = factStore
		o.Memory = memoryStore
		o.Knowledge = opts.Knowledge
		o.Tasks = taskStore
		o.History = historyStore
		o.Workspace = ws
		o.Tools = tools
		o.Logger = e.logger
	}}, opts.Iso...)

	instance := iso.New(name, assembler, llm, isoFns...)

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.isos[name]; exists {
		return nil, fmt.Errorf("iso %q already exists", name)
	}
	e.isos[name] = instance

	e.logger.Info("engine.iso.spawned", "iso", name, "model", llm.Info().Name)

	return instance, nil
}

// Get returns a registered iso by name.
func (e *Engine) Get(name string) (*iso.Iso, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	i, ok := e.isos[name]
	return i, ok
}

// Remove unregisters an iso. The iso's stores are left intact on disk.
func (e *Engine) Remove(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.isos[name]; !ok {
		return false
	}
	delete(e.isos, name)
	return true
}

// Names returns the registered iso names.
func (e *Engine) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.isos))
	for name := range e.isos {
		names = append(names, name)
	}
	return names
}

// AdaptersFromConfig constructs the configured context adapters. The config
// must already have passed Validate; unknown names fail here as well.
func AdaptersFromConfig(cfgs []config.AdapterConfig, historyCapacity int) ([]adapter.Adapter, error) {
	adapters := make([]adapter.Adapter, 0, len(cfgs))
	for _, c := range cfgs {
		tag := c.Tag
		if tag == "" {
			tag = c.Name
		}

		var ad adapter.Adapter
		switch c.Name {
		case "timestamp":
			ad = adapter.NewTimestampAdapter(c.Priority, tag)
		case "facts":
			ad = adapter.NewFactsAdapter(c.Priority, tag)
		case "memory":
			ad = adapter.NewMemoryAdapter(c.Priority, tag)
		case "knowledge":
			ad = adapter.NewKnowledgeAdapter(c.Priority, tag)
		case "tasks":
			ad = adapter.NewTasksAdapter(c.Priority, tag)
		case "history":
			ad = adapter.NewHistoryAdapter(c.Priority, tag, historyCapacity)
		case "workspace":
			ad = adapter.NewWorkspaceAdapter(c.Priority, tag)
		default:
			return nil, fmt.Errorf("unknown adapter: %q", c.Name)
		}

		if c.BestEffort {
			ad = adapter.AsBestEffort(ad)
		}
		adapters = append(adapters, ad)
	}
	return adapters, nil
}

// defaultAdapters wires the standard context sections in their canonical
// priority order.
func defaultAdapters(withWorkspace bool) []adapter.Adapter {
	adapters := []adapter.Adapter{
		adapter.NewTimestampAdapter(10, "timestamp"),
		adapter.NewFactsAdapter(20, "facts"),
		adapter.NewMemoryAdapter(30, "memory"),
		adapter.NewTasksAdapter(40, "tasks"),
		adapter.NewHistoryAdapter(50, "history", 40),
	}
	if withWorkspace {
		adapters = append(adapters, adapter.NewWorkspaceAdapter(60, "workspace"))
	}
	return adapters
}
