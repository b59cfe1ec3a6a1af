// Package llm defines the provider-independent LLM types: configuration,
// usage accounting, the Thread interface and message handlers.
package llm

// Config holds the configuration for the LLM client
type Config struct {
	// Model is the main driver
	Model string
	// WeakModel is the less capable but faster model, used for summaries
	WeakModel          string
	MaxTokens          int
	WeakModelMaxTokens int

	// CompactRatio is the context utilisation ratio (0..1) that triggers
	// auto-compaction of the conversation
	CompactRatio float64
	// DisableAutoCompact turns off automatic compaction
	DisableAutoCompact bool

	// AllowedTools restricts the tool set when non-empty
	AllowedTools []string
	// AllowedCommands restricts bash to commands matching these glob
	// patterns when non-empty
	AllowedCommands []string

	// AllowedSkills restricts discovered skills when non-empty
	AllowedSkills []string
	// DisableSkills removes the skill tool entirely
	DisableSkills bool

	// CommandTimeout is the bash timeout in seconds
	CommandTimeout int
}
