// Package pipeline implements the deterministic prompt assembler. Given a
// per-turn state snapshot and the raw user request it concatenates the
// contributions of every registered context adapter into one ordered message
// sequence: [system] + [adapters by priority] + [user] + [assistant prefix].
// Only content varies between turns; the order never depends on data.
package pipeline

import (
	"sort"
	"strings"

	"github.com/hupe1980/isokit/adapter"
	"github.com/hupe1980/isokit/core"
	"github.com/hupe1980/isokit/logging"
)

// Options configures an Assembler.
type Options struct {
	// UserTag wraps the raw request text in the final user message.
	UserTag string
	// AssistantPrefix is the forced continuation anchor appended as the
	// last message. It is an opening tag only; the model completes it.
	AssistantPrefix string
	// Logger records skipped best-effort adapters.
	Logger logging.Logger
}

// Assembler deterministically builds the prompt message sequence. It holds
// one fixed system slot plus any number of tag-wrapped adapters; ordering is
// (priority, name) ascending and is fixed at assembly time.
type Assembler struct {
	system          adapter.Adapter
	adapters        []adapter.Adapter
	userTag         string
	assistantPrefix string
	logger          logging.Logger
}

// New creates an Assembler with the given system-slot adapter.
func New(system adapter.Adapter, optFns ...func(o *Options)) *Assembler {
	opts := Options{
		UserTag:         "user",
		AssistantPrefix: "<assistant>",
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Assembler{
		system:          system,
		userTag:         opts.UserTag,
		assistantPrefix: opts.AssistantPrefix,
		logger:          opts.Logger,
	}
}

// Register adds a context adapter. Registration order is irrelevant; the
// assembler re-sorts by (priority, name) on every Assemble call.
func (a *Assembler) Register(adapters ...adapter.Adapter) {
	a.adapters = append(a.adapters, adapters...)
}

// Adapters returns the registered adapters in assembly order.
func (a *Assembler) Adapters() []adapter.Adapter {
	out := make([]adapter.Adapter, len(a.adapters))
	copy(out, a.adapters)
	sortAdapters(out)
	return out
}

// Assemble produces the full prompt for one turn. A failing adapter aborts
// assembly with an *core.AdapterError unless it is marked best-effort, in
// which case it is logged and omitted. Assembly is pure over (snap, request):
// the same inputs always yield a byte-identical sequence.
func (a *Assembler) Assemble(snap *core.Snapshot, request string) ([]core.Message, error) {
	messages := make([]core.Message, 0, len(a.adapters)+3)

	sysMsgs, err := a.system.BuildMessages(snap)
	if err != nil {
		return nil, &core.AdapterError{Adapter: a.system.Name(), Err: err}
	}
	messages = append(messages, sysMsgs...)

	ordered := a.Adapters()
	for _, ad := range ordered {
		contribution, err := ad.BuildMessages(snap)
		if err != nil {
			if ad.BestEffort() {
				a.logger.Warn("pipeline.adapter.skipped", "adapter", ad.Name(), "error", err.Error())
				continue
			}
			return nil, &core.AdapterError{Adapter: ad.Name(), Err: err}
		}
		if msg, ok := wrap(ad, contribution); ok {
			messages = append(messages, msg)
		}
	}

	userContent := "<" + a.userTag + ">" + request + "</" + a.userTag + ">"
	messages = append(messages, core.NewTaggedMessage(core.RoleUser, userContent, a.userTag))
	messages = append(messages, core.NewMessage(core.RoleAssistant, a.assistantPrefix))

	return messages, nil
}

// wrap merges an adapter's messages into one tag-wrapped system message.
// Empty contributions are dropped entirely rather than emitting an empty tag.
func wrap(ad adapter.Adapter, contribution []core.Message) (core.Message, bool) {
	parts := make([]string, 0, len(contribution))
	for _, m := range contribution {
		if m.Content != "" {
			parts = append(parts, m.Content)
		}
	}
	if len(parts) == 0 {
		return core.Message{}, false
	}

	body := strings.Join(parts, "\n")
	tag := ad.Tag()
	if tag == "" {
		// untagged adapters contribute raw content
		return core.NewTaggedMessage(core.RoleSystem, body, ad.Name()), true
	}
	return core.NewTaggedMessage(core.RoleSystem, "<"+tag+">"+body+"</"+tag+">", tag), true
}

// sortAdapters orders by ascending priority, ties broken by name.
func sortAdapters(adapters []adapter.Adapter) {
	sort.SliceStable(adapters, func(i, j int) bool {
		if adapters[i].Priority() != adapters[j].Priority() {
			return adapters[i].Priority() < adapters[j].Priority()
		}
		return adapters[i].Name() < adapters[j].Name()
	})
}
