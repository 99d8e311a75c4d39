package config

const (
	// MaxModelLength is the maximum length for model identifiers, including
	// gateway prefixes such as "openrouter/anthropic/".
	MaxModelLength = 200

	// MaxChainLength is the maximum number of nodes accepted in an inline
	// conversation chain.
	MaxChainLength = 10000

	// MaxSystemMessages is the maximum number of injected system messages
	// per request.
	MaxSystemMessages = 50

	// MaxChunksPerRequest is the maximum number of chunks fed to a turn in
	// one call.
	MaxChunksPerRequest = 1000

	// DefaultThoughtOverlapWindow bounds the overlap search of the streaming
	// thought merge, in bytes.
	DefaultThoughtOverlapWindow = 256
)
