package routine

// DefaultAllowedTools is the superset granted when a routine overrides
// neither tool list.
var DefaultAllowedTools = []string{"Read", "Glob", "Grep", "Bash", "WebFetch", "WebSearch"}

// DefaultDisallowedTools blocks the interactive, human-in-the-loop tools.
// Night routines use it: nobody is awake to answer.
var DefaultDisallowedTools = []string{"AskUserQuestion", "ExitPlanMode"}

// ToolPolicy declares the tool capabilities a routine grants the agent.
// Allowed and Disallowed are mutually exclusive intents; a routine sets one
// or the other. A nil Allowed means "use DefaultAllowedTools"; an empty
// non-nil Allowed means "no tools at all".
type ToolPolicy struct {
	Allowed    []string
	Disallowed []string
}

// Resolve returns the lists actually passed to the agent, substituting the
// default allowed set when neither list was overridden.
func (p ToolPolicy) Resolve() (allowed, disallowed []string) {
	if p.Allowed == nil && len(p.Disallowed) == 0 {
		return append([]string(nil), DefaultAllowedTools...), nil
	}
	return p.Allowed, p.Disallowed
}
