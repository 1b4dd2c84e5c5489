// Package moderation implements the two-layer content moderation gate.
//
// Two independent remote layers can be consulted: the builtin safety
// layer, a classifier that scores text against a fixed set of harm
// categories (hate, dangerous content, harassment, sexual) with
// per-category thresholds, and the advanced security layer, a policy
// template scanner covering malicious links, embedded PII, and prompt
// injection signatures. A SafetyMode selects builtin only, advanced
// only, or both.
//
// Requested layers are queried concurrently (a fan-out/fan-in join, not
// a pipeline, because the layers are logically independent) and each
// call is bounded by a per-layer timeout. No retries are issued; the
// system favors fast, predictable failure over added latency.
//
// # Availability policy
//
// Unavailability is explicit: a Verdict with Unavailable=true is
// distinct from "not blocked". The builtin layer is required whenever
// requested; its absence is a deployment error and always fails the
// evaluation. The advanced layer falls back when fail-open is set
// (FellBack=true on the evaluation, blocked computed from the layers
// that did respond) and fails the evaluation with
// ModerationUnavailableError when it is not.
package moderation
