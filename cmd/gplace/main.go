package main

import (
	"os"

	"github.com/gplace-dev/gplace/internal/cli"
	"github.com/gplace-dev/gplace/pkg/buildinfo"
)

func main() {
	cli.SetVersion(buildinfo.Version, buildinfo.Commit, buildinfo.Date)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
