// Package contextwindow resolves the effective context-window token budget
// for a provider/model pair and applies warn/block thresholds to it.
//
// Resolution walks a precedence chain of configuration sources; evaluation
// is a pure function of the resolved size and never inspects transcript
// content. Sizing conditions are advisory verdicts, never errors.
package contextwindow

// Source records which configuration level produced a resolved window size.
// It is used for diagnostics only.
type Source string

const (
	// SourceConfig is the explicit per-agent cap (agents.defaults.contextTokens).
	SourceConfig Source = "config"

	// SourceProfile is a provider-catalog entry matched by model id.
	SourceProfile Source = "profile"

	// SourceModel is the caller-supplied window from live model metadata.
	SourceModel Source = "model"

	// SourceTable is the static well-known-models table.
	SourceTable Source = "table"

	// SourceDefault is the caller-supplied conservative fallback.
	SourceDefault Source = "default"
)

// Info is a resolved context window. It is never mutated after creation.
type Info struct {
	// Tokens is the effective context-window budget. Always positive.
	Tokens int `json:"tokens"`

	// Source records the provenance of Tokens.
	Source Source `json:"source"`
}

// Config mirrors the session-configuration keys the resolver reads. All
// fields are optional; zero values fall through the precedence chain.
type Config struct {
	Agents AgentsConfig `json:"agents"`
	Models ModelsConfig `json:"models"`
}

// AgentsConfig holds agent-level defaults.
type AgentsConfig struct {
	Defaults AgentDefaults `json:"defaults"`
}

// AgentDefaults holds per-agent overrides.
type AgentDefaults struct {
	// ContextTokens caps the effective window. A cap never increases the
	// window: it applies only when strictly smaller than the otherwise
	// resolved size.
	ContextTokens int `json:"contextTokens"`
}

// ModelsConfig holds the per-provider model catalogs.
type ModelsConfig struct {
	Providers map[string]ProviderConfig `json:"providers"`
}

// ProviderConfig is one provider's model catalog.
type ProviderConfig struct {
	Models []ModelConfig `json:"models"`
}

// ModelConfig is a catalog entry for a single model.
type ModelConfig struct {
	ID            string `json:"id"`
	ContextWindow int    `json:"contextWindow"`
}

// Resolve determines the effective context-window budget for the given
// provider and model.
//
// Precedence, highest first: the provider-catalog entry from cfg, the
// caller-supplied modelContextWindow (live model metadata), the well-known
// models table, then defaultTokens. The per-agent cap from cfg is applied
// last and only when strictly smaller than the resolved window. Missing or
// zero inputs at any level fall through to the next.
func Resolve(cfg *Config, provider, modelID string, modelContextWindow, defaultTokens int) Info {
	info := resolveBase(cfg, provider, modelID, modelContextWindow, defaultTokens)

	if cfg != nil {
		if cap := cfg.Agents.Defaults.ContextTokens; cap > 0 && cap < info.Tokens {
			return Info{Tokens: cap, Source: SourceConfig}
		}
	}
	return info
}

func resolveBase(cfg *Config, provider, modelID string, modelContextWindow, defaultTokens int) Info {
	if cfg != nil {
		if catalog, ok := cfg.Models.Providers[provider]; ok {
			for _, m := range catalog.Models {
				if m.ID == modelID && m.ContextWindow > 0 {
					return Info{Tokens: m.ContextWindow, Source: SourceProfile}
				}
			}
		}
	}

	if modelContextWindow > 0 {
		return Info{Tokens: modelContextWindow, Source: SourceModel}
	}

	if window, ok := wellKnownModels[modelID]; ok && window > 0 {
		return Info{Tokens: window, Source: SourceTable}
	}

	return Info{Tokens: defaultTokens, Source: SourceDefault}
}
