// Package all registers all shell commands.
package all

import (
	_ "github.com/robotalks/negicon/pkg/cli/cmds/sensor"
)
