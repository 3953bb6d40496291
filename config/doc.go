// Package config loads the readflow configuration.
//
// Values come from, in increasing precedence: struct defaults, a config.yml
// found in the standard locations (or given explicitly), environment
// variables (optionally seeded from a .env file), and command-line flags
// bound with WithFlags.
//
// # Usage
//
//	cfg, err := config.Load("readflow",
//	    config.WithConfigFile(path),
//	    config.WithFlags(flags, map[string]string{"workers": "pipeline.encoder_workers"}),
//	)
//
// Environment variables map to nested keys by replacing underscores with
// dots, so PIPELINE_QUEUE_CAPACITY sets pipeline.queue_capacity.
package config
