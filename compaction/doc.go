// Package compaction decides whether and how aggressively to fold
// conversation history into summaries, and carries out the summarization.
//
// The planning functions are pure: they work from coarse character-based
// token estimates, never call the network, and return advisory values the
// runtime acts on. AdaptiveChunkRatio bounds how much history one
// summarization pass may take on, IsOversizedForSummary flags messages that
// must be handled individually, and CollectToolFailures preserves a digest
// of failed tool calls so a summary does not silently lose them.
//
// The Manager, Summarizer, and TokenCounter wrap the external capabilities:
// Anthropic summarization (which may fail), optional API-accurate token
// counting, and Postgres persistence of compaction events.
package compaction
