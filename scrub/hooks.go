package scrub

import "github.com/sarchlab/psp/hooking"

// Hook positions of the scrub controller. Passes are additionally reported
// through tracing.HookPosTaskStart and tracing.HookPosTaskEnd.
var (
	// HookPosPassStart is invoked before the engine is called. The item is
	// a Pass.
	HookPosPassStart = &hooking.HookPos{Name: "ScrubPassStart"}

	// HookPosPassEnd is invoked after a successful engine call. The item is
	// a Pass.
	HookPosPassEnd = &hooking.HookPos{Name: "ScrubPassEnd"}

	// HookPosTaskFault is invoked when the scrub task stops on a fatal
	// error. The item is the error.
	HookPosTaskFault = &hooking.HookPos{Name: "ScrubTaskFault"}
)

// Pass describes one engine call made by the scrub task.
type Pass struct {
	Mode  RunMode `json:"mode"`
	Start uint64  `json:"start"`
	End   uint64  `json:"end"`
	Pages uint64  `json:"pages"`
	Err   string  `json:"error,omitempty"`
}
