package cmd

import (
	"github.com/urfave/cli"
	"github.com/whoJake/fluidsim/log"
)

var logger = log.New("fluidsim")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}
