package main

import (
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/sitefleet/platform/internal/config"
	"github.com/sitefleet/platform/internal/logger"
	"github.com/sitefleet/platform/internal/provision"
)

func main() {
	p := config.LoadPlanning()
	log := logger.New(p.LogLevel, p.PrettyLog).Named("stack")
	defer func() { _ = log.Sync() }()

	pulumi.Run(provision.Program(log))
}
