package contextwindow

// wellKnownModels maps model IDs to their context window size in tokens.
// It is the static fallback the resolver consults when neither
// configuration nor live model metadata supplies a window size.
var wellKnownModels = map[string]int{
	// Claude 4 models
	"claude-sonnet-4-5-20250929": 200000,
	"claude-opus-4-5-20251101":   200000,
	// Claude 3.5 models
	"claude-3-5-sonnet-20241022": 200000,
	"claude-3-5-haiku-20241022":  200000,
	// Claude 3 models
	"claude-3-opus-20240229":   200000,
	"claude-3-sonnet-20240229": 200000,
	"claude-3-haiku-20240307":  200000,
	// OpenAI models
	"gpt-4o":      128000,
	"gpt-4o-mini": 128000,
	"gpt-4.1":     1047576,
	// Google models
	"gemini-2.5-pro":   1048576,
	"gemini-2.5-flash": 1048576,
}
