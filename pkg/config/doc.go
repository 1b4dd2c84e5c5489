// Package config defines the YAML configuration surface for the
// safety pipeline: sensitive-data scanning, the detector endpoint,
// the moderation gate, the token vault, evidence recording, and
// telemetry.
//
// Loading follows a fixed sequence: read the file, parse YAML, apply
// defaults, apply THEMIS_* environment overrides, then validate.
// Validation collects every problem into a single ValidationError so
// operators see the full list at once instead of fixing fields one at
// a time. A Watcher built on fsnotify supports hot reload of the
// configuration file with debounced events.
package config
