package sim

// HookPos defines the enum of possible hooking positions.
type HookPos struct {
	Name string
}

// HookPosBeforeTask triggers right before a worker dispatches a task.
var HookPosBeforeTask = &HookPos{Name: "BeforeTask"}

// HookPosAfterTask triggers right after a task's callback returns.
var HookPosAfterTask = &HookPos{Name: "AfterTask"}

// HookPosRoundStart triggers on the scheduler when a round is released.
var HookPosRoundStart = &HookPos{Name: "RoundStart"}

// HookPosRoundEnd triggers on the scheduler after all workers have finished
// a round, before the clock advances.
var HookPosRoundEnd = &HookPos{Name: "RoundEnd"}

// HookCtx holds the information about the site where a hook is triggered.
type HookCtx struct {
	Domain Hookable
	Now    SimulationTime
	Pos    *HookPos
	Item   interface{}
}

// Hookable defines an object that accepts hooks.
type Hookable interface {
	// AcceptHook registers a hook.
	AcceptHook(hook Hook)
}

// Hook is a short piece of program that can be invoked by a hookable
// object.
type Hook interface {
	// Func determines what to do when the hook is invoked.
	Func(ctx HookCtx)
}

// A HookableBase provides the utility functions for types that implement
// the Hookable interface.
type HookableBase struct {
	Hooks []Hook
}

// NewHookableBase creates a HookableBase object.
func NewHookableBase() *HookableBase {
	h := new(HookableBase)
	h.Hooks = make([]Hook, 0)
	return h
}

// AcceptHook registers a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.Hooks = append(h.Hooks, hook)
}

// InvokeHook triggers the registered hooks.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.Hooks {
		hook.Func(ctx)
	}
}
