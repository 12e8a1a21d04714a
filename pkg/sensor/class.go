package sensor

import (
	"github.com/robotalks/negicon/pkg/bus"
	"github.com/robotalks/negicon/pkg/mlx"
	"github.com/robotalks/negicon/pkg/port"
)

// ClassID is the responder class of the MLX90363.
const ClassID = byte(mlx.OpNopAnswer)

// Class returns the port.Class creating drivers with opts.
func Class(opts Options) port.Class {
	return port.Class{
		Name: "MLX90363",
		New: func(ex bus.Exchanger) port.Device {
			return New(mlx.NewConn(ex), opts)
		},
	}
}

// Register registers the MLX90363 class into a class table.
func Register(classes port.Classes, opts Options) port.Classes {
	classes[ClassID] = Class(opts)
	return classes
}
