// Package main is the single-binary entrypoint for forge: the daemon
// runs via 'forge serve', every other subcommand is a client.
package main

import "github.com/forgectl/forge/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
