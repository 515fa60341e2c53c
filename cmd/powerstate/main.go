// Package main is the entry point for the powerstate CLI tool.
package main

import (
	"github.com/bgsforge/powerstate/internal/cmd"
)

func main() {
	cmd.Execute()
}
