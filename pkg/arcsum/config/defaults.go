package config

// Default configuration values.
const (
	// DefaultManifestName is the manifest file name used when none is
	// given on the command line.
	DefaultManifestName = "manifest.txt"

	// DefaultBufferSize is the read buffer size for file hashing.
	DefaultBufferSize = "1MiB"

	// DefaultWorkers is the hashing worker count. Zero means one worker
	// per CPU core.
	DefaultWorkers = 0

	// DefaultLogLevel is the default logging verbosity.
	DefaultLogLevel = "info"

	// DefaultOutputFormat is the report format written to stdout.
	DefaultOutputFormat = "pretty"
)
