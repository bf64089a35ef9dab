// Package openclaw keeps long-lived model conversations valid and within
// budget.
//
// An agent runtime exchanges ordered transcripts of user turns, assistant
// turns, and tool results with a language-model provider. Transcripts get
// corrupted by network aborts and streaming errors, and they grow past the
// provider's context window. This package and its subpackages provide the
// pure transformations a runtime applies before every model call:
//
//   - repair: restores tool-call/tool-result pairing and rewrites
//     interrupted assistant turns into valid text turns.
//   - contextwindow: resolves the effective context-window budget from a
//     precedence chain of configuration sources and applies warn/block
//     thresholds.
//   - compaction: estimates sizes, plans how aggressively history may be
//     folded into summaries, preserves tool failures across compaction, and
//     runs Anthropic-backed summarization.
//   - tool: tool definitions, input validation, and per-provider JSON-Schema
//     sanitation.
//   - storage: Postgres persistence for sessions, messages, and compaction
//     events.
//
// The root package ties the transformations together in a Preflighter that
// prepares a message list and tool list for a provider call. All core
// transformations are synchronous, side-effect free, and safe for concurrent
// use.
package openclaw
