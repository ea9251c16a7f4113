// Package config loads pullstream configuration.
//
// Values come from a YAML file, a .env file, PULLSTREAM_ prefixed
// environment variables and command-line flags, in increasing precedence.
// Files are discovered next to the working directory unless given
// explicitly.
//
// # Usage
//
//	cfg, err := config.Load("pullstream", version.Short(),
//	    config.WithConfigFile("pullstream.yml"),
//	    config.WithFlag("pipeline.read_size", flags.Lookup("read-size")),
//	)
//
// Load applies defaults and validates the result. Validation problems are
// reported together as one INVALID_CONFIG error.
package config
