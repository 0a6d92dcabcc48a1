// Package main is the single-binary entrypoint for cpupd.
package main

import "github.com/cpupd-dev/cpupd/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
