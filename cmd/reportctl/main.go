// Package main is the entry point for the reportctl CLI.
package main

import (
	"github.com/urbanpulse/report-server/internal/cli"
)

func main() {
	cli.Execute()
}
