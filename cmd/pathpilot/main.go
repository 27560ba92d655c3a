// Package main is the single-binary entrypoint for PathPilot, a gamified
// career guidance companion with a REST API and a local CLI.
package main

import "github.com/futurenavigators/pathpilot/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
