package main

import (
	"github.com/robotalks/negicon/pkg/cli/sh"

	_ "github.com/robotalks/negicon/pkg/cli/cmds/all"
)

func main() {
	sh.Main()
}
