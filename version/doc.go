// Package version reports build metadata for the readflow binary.
//
// Values are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/readflow/version.Version=1.0.0"
package version
