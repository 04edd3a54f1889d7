// Package tracing records the passes of the scrub task so that they can be
// inspected after the fact.
package tracing

import "github.com/sarchlab/psp/hooking"

// NamedHookable represent something both have a name and can be hooked.
type NamedHookable interface {
	Name() string
	hooking.Hookable
	InvokeHook(hooking.HookCtx)
}

// A list of hook poses for the hooks to apply to.
var (
	HookPosTaskStart = &hooking.HookPos{Name: "HookPosTaskStart"}
	HookPosTaskEnd   = &hooking.HookPos{Name: "HookPosTaskEnd"}
)

// StartTask notifies the hooks that hook to the domain about the start of a
// task.
func StartTask(
	id string,
	parentID string,
	domain NamedHookable,
	kind string,
	what string,
	detail interface{},
) {
	allRequiredFieldsMustBeNotEmpty(id, domain, kind, what)

	if domain.NumHooks() == 0 {
		return
	}

	domainMustHaveName(domain)

	task := Task{
		ID:       id,
		ParentID: parentID,
		Kind:     kind,
		What:     what,
		Where:    domain.Name(),
		Detail:   detail,
	}
	ctx := hooking.HookCtx{
		Domain: domain,
		Item:   task,
		Pos:    HookPosTaskStart,
	}
	domain.InvokeHook(ctx)
}

// EndTask notifies the hooks about the end of a task. The detail replaces the
// one given at start when it is not nil.
func EndTask(
	id string,
	domain NamedHookable,
	detail interface{},
) {
	if domain.NumHooks() == 0 {
		return
	}

	task := Task{
		ID:     id,
		Detail: detail,
	}
	ctx := hooking.HookCtx{
		Domain: domain,
		Item:   task,
		Pos:    HookPosTaskEnd,
	}
	domain.InvokeHook(ctx)
}

func allRequiredFieldsMustBeNotEmpty(
	id string,
	domain NamedHookable,
	kind string,
	what string,
) {
	if id == "" {
		panic("id must not be empty")
	}

	if domain == nil {
		panic("domain must not be nil")
	}

	if kind == "" {
		panic("kind must not be empty")
	}

	if what == "" {
		panic("what must not be empty")
	}
}

func domainMustHaveName(domain NamedHookable) {
	if domain.Name() == "" {
		panic("domain must have a name")
	}
}
