package openclaw

import (
	"github.com/sdancy10/openclaw/compaction"
	"github.com/sdancy10/openclaw/contextwindow"
	"github.com/sdancy10/openclaw/hooks"
	"github.com/sdancy10/openclaw/tool"
)

// Option is a functional option for configuring a Preflighter
type Option func(*Preflighter) error

// WithConfig supplies the session configuration the window resolver reads.
func WithConfig(cfg *contextwindow.Config) Option {
	return func(p *Preflighter) error {
		p.config = cfg
		return nil
	}
}

// WithModelContextWindow supplies the context window reported by live model
// metadata. Zero means the metadata carried no window.
func WithModelContextWindow(tokens int) Option {
	return func(p *Preflighter) error {
		if tokens < 0 {
			return NewPipelineError("WithModelContextWindow", ErrInvalidConfig).
				WithContext("tokens", tokens)
		}
		p.modelContextWindow = tokens
		return nil
	}
}

// WithDefaultContextWindow sets the conservative fallback window used when
// no other source resolves.
func WithDefaultContextWindow(tokens int) Option {
	return func(p *Preflighter) error {
		if tokens < 0 {
			return NewPipelineError("WithDefaultContextWindow", ErrInvalidConfig).
				WithContext("tokens", tokens)
		}
		p.defaultContextWindow = tokens
		return nil
	}
}

// WithGuardThresholds overrides the warn and block thresholds. Zero values
// keep the package defaults.
func WithGuardThresholds(warnBelow, hardMin int) Option {
	return func(p *Preflighter) error {
		if warnBelow < 0 || hardMin < 0 {
			return NewPipelineError("WithGuardThresholds", ErrInvalidConfig).
				WithContext("warnBelow", warnBelow).
				WithContext("hardMin", hardMin)
		}
		p.warnBelowTokens = warnBelow
		p.hardMinTokens = hardMin
		return nil
	}
}

// WithTools registers the tool definitions to sanitize for the provider
func WithTools(defs ...tool.Definition) Option {
	return func(p *Preflighter) error {
		for _, def := range defs {
			if def.Name == "" {
				return NewPipelineError("WithTools", ErrInvalidToolSchema).
					WithContext("reason", "tool definition has no name")
			}
			p.tools = append(p.tools, def)
		}
		return nil
	}
}

// WithToolRegistry registers every tool in a registry
func WithToolRegistry(registry *tool.Registry) Option {
	return func(p *Preflighter) error {
		p.tools = append(p.tools, registry.Definitions()...)
		return nil
	}
}

// WithOverrides attaches a runtime override registry and the owner whose
// overrides apply to this preflighter's planning advisories.
func WithOverrides(registry *compaction.OverrideRegistry, owner any) Option {
	return func(p *Preflighter) error {
		p.overrides = registry
		p.owner = owner
		return nil
	}
}

// WithHooks attaches a hook registry for observability callbacks
func WithHooks(registry *hooks.Registry) Option {
	return func(p *Preflighter) error {
		p.hooks = registry
		return nil
	}
}
