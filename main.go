// Package main is the entry point for the mpvhost application.
package main

import (
	"github.com/samber/lo"
	"github.com/teamg-play/mpvhost/cmd"
	"github.com/teamg-play/mpvhost/config"
	"github.com/teamg-play/mpvhost/internal/cache"
	"github.com/teamg-play/mpvhost/log"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	// Prune expired cache entries and orphaned control sockets in the background.
	go cache.CollectGarbage()

	cmd.Execute()
}
