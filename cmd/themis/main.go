// Themis is a content-safety pipeline for LLM applications.
//
// It gates text on its way to and from a model: sensitive data is
// detected and transformed (masked, tokenized, or redacted) before
// moderation layers decide whether the turn may proceed, and every
// completed turn leaves an audit record.
//
// Usage:
//
//	# Start the service with default configuration
//	themis run
//
//	# Start with a custom configuration file
//	themis run --config /path/to/config.yaml
//
//	# Scan a single text through the pipeline
//	echo "my email is jane@example.com" | themis scan
//
//	# Validate a configuration file
//	themis validate --config /path/to/config.yaml
//
//	# Show version information
//	themis version
package main

func main() {
	Execute()
}
