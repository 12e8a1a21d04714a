package main

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/negicon/pkg/env"
	fx "github.com/robotalks/negicon/pkg/framework"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	e := env.NewConfig().MustNewEnv()
	defer e.Close()

	runner := fx.NewRunner().HandleSignals()
	loop := fx.NewLoop().Add(e)
	runner.Go(fx.NamedRun("loop", loop))
	if err := runner.Wait(); err != nil {
		glog.Error(err)
	}
}
