package main

import (
	"github.com/robotalks/rover.go/pkg/cli/sh"
	"github.com/robotalks/rover.go/pkg/remote"

	_ "github.com/robotalks/rover.go/pkg/cli/cmds/drive"
)

//go-build: CGO_ENABLED=0

func init() {
	remote.SetupFlags()
	sh.SetupFlags()
}

func main() {
	sh.Main()
}
