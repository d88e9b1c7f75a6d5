package iso

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/isokit/core"
	"github.com/hupe1980/isokit/logging"
	"github.com/hupe1980/isokit/model"
	"github.com/hupe1980/isokit/pipeline"
	"github.com/hupe1980/isokit/tool"
	"github.com/hupe1980/isokit/workspace"
)

// BusyPolicy controls what Send does while another turn is in flight.
type BusyPolicy string

// Supported busy policies.
const (
	// BusyQueue makes Send wait for the running turn to finish.
	BusyQueue BusyPolicy = "queue"
	// BusyReject makes Send fail immediately with core.ErrIsoBusy.
	BusyReject BusyPolicy = "reject"
)

// Options configures an Iso instance.
//
// Use functional options with New to override defaults.
type Options struct {
	// Facts, Memory, Knowledge, Tasks and History are this iso's private
	// store instances. Nil stores disable the corresponding snapshot
	// section. Stores must never be shared across isos.
	Facts     core.FactStore
	Memory    core.MemoryStore
	Knowledge core.MemoryStore
	Tasks     core.TaskStore
	History   core.HistoryStore

	// Workspace is the sandboxed directory listed into snapshots. The
	// workspace tools hold their own reference; this one only feeds the
	// workspace adapter.
	Workspace *workspace.Workspace

	// Tools are registered into the iso's private registry.
	Tools []tool.Tool

	// MaxToolDepth bounds the number of model invocations per turn.
	MaxToolDepth int

	// BusyPolicy selects queueing or rejection for concurrent Sends.
	BusyPolicy BusyPolicy

	// MaxParallelTools caps concurrently running parallel-safe tools.
	MaxParallelTools int

	// FactsLimit caps facts injected into each snapshot.
	FactsLimit int

	// MemoryTopK caps ranked memory and knowledge results per snapshot.
	MemoryTopK int

	// HistoryWindow caps transcript messages injected into each snapshot.
	HistoryWindow int

	// State seeds the template variables visible to instruction rendering.
	State map[string]any

	// WorkspaceListDepth bounds the directory listing in snapshots.
	WorkspaceListDepth int

	// Logger receives loop and tool events.
	Logger logging.Logger
}

// Iso is a single autonomous agent: one assembler, one model, one tool
// registry and one private set of stores. All turns for an iso run strictly
// one at a time; the loop is the only writer to the iso's stores.
type Iso struct {
	name      string
	assembler *pipeline.Assembler
	llm       model.Model
	registry  *tool.Registry

	facts     core.FactStore
	memory    core.MemoryStore
	knowledge core.MemoryStore
	tasks     core.TaskStore
	history   core.HistoryStore
	ws        *workspace.Workspace

	maxToolDepth     int
	busyPolicy       BusyPolicy
	maxParallelTools int
	factsLimit       int
	memoryTopK       int
	historyWindow    int
	wsListDepth      int
	state            map[string]any

	logger logging.Logger

	// slot is a one-permit semaphore serializing turns.
	slot chan struct{}

	mu    sync.RWMutex
	phase Phase
}

// New creates an Iso with the given name, assembler and model.
//
// Defaults: depth limit 10, queueing busy policy, 4 parallel tool slots,
// 50 facts, top-5 memory results, 40 history messages, no-op logger.
func New(name string, assembler *pipeline.Assembler, llm model.Model, optFns ...func(o *Options)) *Iso {
	opts := Options{
		MaxToolDepth:       10,
		BusyPolicy:         BusyQueue,
		MaxParallelTools:   4,
		FactsLimit:         50,
		MemoryTopK:         5,
		HistoryWindow:      40,
		WorkspaceListDepth: 2,
		Logger:             logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	registry := tool.NewRegistry()
	registry.Register(opts.Tools...)

	state := map[string]any{}
	for k, v := range opts.State {
		state[k] = v
	}

	i := &Iso{
		name:             name,
		assembler:        assembler,
		llm:              llm,
		registry:         registry,
		facts:            opts.Facts,
		memory:           opts.Memory,
		knowledge:        opts.Knowledge,
		tasks:            opts.Tasks,
		history:          opts.History,
		ws:               opts.Workspace,
		maxToolDepth:     opts.MaxToolDepth,
		busyPolicy:       opts.BusyPolicy,
		maxParallelTools: opts.MaxParallelTools,
		factsLimit:       opts.FactsLimit,
		memoryTopK:       opts.MemoryTopK,
		historyWindow:    opts.HistoryWindow,
		wsListDepth:      opts.WorkspaceListDepth,
		state:            state,
		logger:           opts.Logger,
		slot:             make(chan struct{}, 1),
		phase:            PhaseAwaitingInput,
	}

	return i
}

// Name returns the iso's identifier.
func (i *Iso) Name() string { return i.name }

// Phase returns the current lifecycle phase.
func (i *Iso) Phase() Phase {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.phase
}

func (i *Iso) setPhase(p Phase) {
	i.mu.Lock()
	i.phase = p
	i.mu.Unlock()
}

// RegisterTools adds tools to the iso's registry.
func (i *Iso) RegisterTools(tools ...tool.Tool) {
	i.registry.Register(tools...)
}

// Tools returns the iso's tool registry.
func (i *Iso) Tools() *tool.Registry { return i.registry }

// SetState sets a template variable visible to instruction rendering on
// subsequent turns.
func (i *Iso) SetState(key string, value any) {
	i.mu.Lock()
	i.state[key] = value
	i.mu.Unlock()
}

// Send runs one full turn for the given user request and blocks until the
// iso produces a final answer or fails. Turns are strictly serialized; a
// concurrent Send either waits or fails with core.ErrIsoBusy depending on
// the busy policy. Fatal failures are returned as *core.TurnError carrying
// the partial transcript.
func (i *Iso) Send(ctx context.Context, request string) (*Turn, error) {
	switch i.busyPolicy {
	case BusyReject:
		select {
		case i.slot <- struct{}{}:
		default:
			return nil, fmt.Errorf("%w: iso %s", core.ErrIsoBusy, i.name)
		}
	default:
		select {
		case i.slot <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	// The iso returns to awaiting_input before the slot frees, so a queued
	// Send never observes a stale terminal phase from the previous turn.
	defer func() {
		i.setPhase(PhaseAwaitingInput)
		<-i.slot
	}()

	turn, err := i.runTurn(ctx, request)
	if err != nil {
		i.setPhase(PhaseFailed)
		return nil, err
	}

	i.setPhase(PhaseDone)

	return turn, nil
}

// runTurn drives one request through assembly, model invocation and tool
// execution until the model stops requesting tools or a limit trips.
func (i *Iso) runTurn(ctx context.Context, request string) (*Turn, *core.TurnError) {
	turnID := core.NewID()
	startedAt := time.Now().UTC()

	i.logger.Info("iso.turn.start", "iso", i.name, "turn", turnID)

	i.setPhase(PhaseAssembling)

	snap, err := i.snapshot(request)
	if err != nil {
		return nil, i.fatal(PhaseAssembling, nil, err)
	}

	assembled, err := i.assembler.Assemble(snap, request)
	if err != nil {
		return nil, i.fatal(PhaseAssembling, nil, err)
	}

	// The assembler ends the sequence with the assistant-prefix anchor.
	// The anchor is re-appended before every model invocation instead of
	// accumulating in the growing transcript.
	anchor := assembled[len(assembled)-1]
	working := assembled[:len(assembled)-1]

	limiter := core.NewDepthLimiter(i.maxToolDepth)

	turn := &Turn{
		ID:        turnID,
		IsoName:   i.name,
		Request:   request,
		StartedAt: startedAt,
	}

	tools := i.toolDefinitions()

	for {
		if err := ctx.Err(); err != nil {
			return nil, i.fatal(PhaseInvokingModel, working, err)
		}

		if err := limiter.Increment(); err != nil {
			return nil, i.fatal(PhaseInvokingModel, working, err)
		}

		i.setPhase(PhaseInvokingModel)

		resp, err := i.llm.Generate(ctx, model.Request{
			Messages: append(append([]core.Message{}, working...), anchor),
			Tools:    tools,
		})
		if err != nil {
			return nil, i.fatal(PhaseInvokingModel, working, err)
		}

		if resp.Usage != nil {
			turn.addUsage(resp.Usage)
		}

		if !resp.IsToolTurn() {
			working = append(working, core.NewMessage(core.RoleAssistant, resp.Text))
			turn.Answer = resp.Text
			turn.Transcript = working
			turn.Depth = limiter.Count()
			turn.FinishedAt = time.Now().UTC()
			break
		}

		i.setPhase(PhaseToolExecuting)

		calls := resp.ToolCalls
		turn.ToolCalls = append(turn.ToolCalls, calls...)

		for _, call := range calls {
			working = append(working, core.EncodeToolCall(call))
		}

		results, err := i.executeBatch(ctx, turnID, limiter.Count(), calls)
		if err != nil {
			return nil, i.fatal(PhaseToolExecuting, working, err)
		}

		for _, result := range results {
			working = append(working, core.EncodeToolResult(result))
		}
		turn.ToolResults = append(turn.ToolResults, results...)
	}

	i.appendHistory(turn)

	i.logger.Info("iso.turn.done",
		"iso", i.name,
		"turn", turnID,
		"depth", turn.Depth,
		"tool_calls", len(turn.ToolCalls),
		"duration", turn.FinishedAt.Sub(turn.StartedAt).String(),
	)

	return turn, nil
}

// fatal wraps err into a TurnError carrying the transcript built so far.
func (i *Iso) fatal(phase Phase, transcript []core.Message, err error) *core.TurnError {
	i.logger.Error("iso.turn.failed", "iso", i.name, "phase", phase.String(), "error", err.Error())
	return &core.TurnError{
		Phase:      phase.String(),
		Transcript: transcript,
		Err:        err,
	}
}

// snapshot performs every store read for the turn up front so adapters can
// assemble without touching I/O.
func (i *Iso) snapshot(request string) (*core.Snapshot, error) {
	i.mu.RLock()
	state := make(map[string]any, len(i.state))
	for k, v := range i.state {
		state[k] = v
	}
	i.mu.RUnlock()

	snap := &core.Snapshot{
		IsoName: i.name,
		Request: request,
		State:   state,
		Now:     time.Now().UTC(),
	}

	if i.facts != nil {
		facts, err := i.facts.Recent(i.factsLimit)
		if err != nil {
			return nil, fmt.Errorf("read facts: %w", err)
		}
		snap.Facts = facts
	}

	if i.memory != nil {
		memories, err := i.memory.Query(request, i.memoryTopK)
		if err != nil {
			return nil, fmt.Errorf("query memory: %w", err)
		}
		snap.Memories = memories
	}

	if i.knowledge != nil {
		knowledge, err := i.knowledge.Query(request, i.memoryTopK)
		if err != nil {
			return nil, fmt.Errorf("query knowledge: %w", err)
		}
		snap.Knowledge = knowledge
	}

	if i.tasks != nil {
		tasks, err := i.tasks.List()
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		snap.Tasks = tasks
	}

	if i.history != nil {
		history, err := i.history.Recent(i.historyWindow)
		if err != nil {
			return nil, fmt.Errorf("read history: %w", err)
		}
		snap.History = history
	}

	if i.ws != nil {
		entries, err := i.ws.List("", i.wsListDepth)
		if err != nil {
			return nil, fmt.Errorf("list workspace: %w", err)
		}
		snap.WorkspaceEntries = entries
	}

	return snap, nil
}

// executeBatch runs one model-issued batch of tool calls. Results are
// emitted in call order regardless of execution interleaving: parallel-safe
// tools run concurrently in an errgroup writing into an indexed slice, and
// any serial tool first drains the in-flight group so writes to shared state
// keep their relative order.
func (i *Iso) executeBatch(ctx context.Context, turnID string, depth int, calls []core.ToolCall) ([]core.ToolResult, error) {
	results := make([]core.ToolResult, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.maxParallelTools)

	flush := func() error {
		return g.Wait()
	}

	for idx, call := range calls {
		t, err := i.registry.Lookup(call.Name)
		if err != nil {
			results[idx] = core.ToolResult{CallID: call.ID, Name: call.Name, Error: err.Error()}
			continue
		}

		if t.ParallelSafe() {
			idx, call := idx, call
			g.Go(func() error {
				results[idx] = i.executeCall(gctx, t, turnID, depth, call)
				return nil
			})
			continue
		}

		if err := flush(); err != nil {
			return nil, err
		}
		results[idx] = i.executeCall(ctx, t, turnID, depth, call)

		g, gctx = errgroup.WithContext(ctx)
		g.SetLimit(i.maxParallelTools)
	}

	if err := flush(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// executeCall invokes one tool and converts its outcome into a ToolResult.
// Tool failures never abort the turn; they become the result's Error field
// so the model can react. A panic inside the tool is recovered the same way.
func (i *Iso) executeCall(ctx context.Context, t tool.Tool, turnID string, depth int, call core.ToolCall) core.ToolResult {
	toolCtx := core.NewToolContext(ctx, i.name, turnID, call.ID, depth, i.logger)

	var (
		output any
		err    error
	)
	func() { // panic safety
		defer func() {
			if r := recover(); r != nil {
				err = panicError(r)
				i.logger.Error("iso.tool.panic", "iso", i.name, "tool", call.Name, "call_id", call.ID, "recover", r)
			}
		}()
		output, err = t.Call(toolCtx, call.Arguments)
	}()
	if err != nil {
		i.logger.Warn("iso.tool.failed", "iso", i.name, "tool", call.Name, "call_id", call.ID, "error", err.Error())
		return core.ToolResult{CallID: call.ID, Name: call.Name, Error: err.Error()}
	}

	return core.ToolResult{CallID: call.ID, Name: call.Name, Output: stringifyOutput(output)}
}

// appendHistory persists the turn's conversational traffic: the user
// request, the encoded tool exchange and the final answer.
func (i *Iso) appendHistory(turn *Turn) {
	if i.history == nil {
		return
	}

	messages := make([]core.Message, 0, len(turn.ToolCalls)+len(turn.ToolResults)+2)
	messages = append(messages, core.NewMessage(core.RoleUser, turn.Request))
	for idx, call := range turn.ToolCalls {
		messages = append(messages, core.EncodeToolCall(call))
		if idx < len(turn.ToolResults) {
			messages = append(messages, core.EncodeToolResult(turn.ToolResults[idx]))
		}
	}
	messages = append(messages, core.NewMessage(core.RoleAssistant, turn.Answer))

	if err := i.history.Append(messages...); err != nil {
		i.logger.Warn("iso.history.append.failed", "iso", i.name, "turn", turn.ID, "error", err.Error())
	}
}

// toolDefinitions maps the registry into model tool declarations.
func (i *Iso) toolDefinitions() []model.ToolDefinition {
	defs := i.registry.Definitions()
	out := make([]model.ToolDefinition, len(defs))
	for idx, d := range defs {
		out[idx] = model.ToolDefinition{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Parameters,
		}
	}
	return out
}

// panicError converts a recovered panic value to an error without pulling
// external dependencies. The stack is captured for logging; the message
// carries the panic value so the model sees what went wrong.
func panicError(r any) error { return &panicErr{val: r, stack: debug.Stack()} }

type panicErr struct {
	val   any
	stack []byte
}

func (p *panicErr) Error() string { return fmt.Sprintf("panic recovered: %v", p.val) }

// stringifyOutput renders a tool's return value for the transcript.
func stringifyOutput(output any) string {
	switch v := output.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
