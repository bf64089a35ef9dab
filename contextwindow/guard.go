package contextwindow

// Default thresholds for the guard.
const (
	// DefaultHardMinTokens is the smallest window an agent can usefully run
	// in. Below it the call should be blocked.
	DefaultHardMinTokens = 16000

	// DefaultWarnBelowTokens is the window size under which the runtime
	// should warn that compaction headroom is tight.
	DefaultWarnBelowTokens = 32000
)

// GuardParams configures a guard evaluation. Zero thresholds use the
// package defaults.
type GuardParams struct {
	Info            Info
	WarnBelowTokens int
	HardMinTokens   int
}

// Verdict is the guard's advisory output. It is derived per call and never
// persisted.
type Verdict struct {
	Tokens      int  `json:"tokens"`
	ShouldWarn  bool `json:"should_warn"`
	ShouldBlock bool `json:"should_block"`
}

// Evaluate applies warn/block thresholds to a resolved window size.
// Blocking implies warning. The verdict is advisory: acting on it is the
// caller's responsibility.
func Evaluate(params GuardParams) Verdict {
	warnBelow := params.WarnBelowTokens
	if warnBelow == 0 {
		warnBelow = DefaultWarnBelowTokens
	}
	hardMin := params.HardMinTokens
	if hardMin == 0 {
		hardMin = DefaultHardMinTokens
	}

	tokens := params.Info.Tokens
	block := tokens < hardMin
	return Verdict{
		Tokens:      tokens,
		ShouldWarn:  block || tokens < warnBelow,
		ShouldBlock: block,
	}
}
