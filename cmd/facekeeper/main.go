package main

import (
	"context"
	"log"
	"os"
	"syscall"

	"github.com/awnumar/memguard"
	"github.com/dmitrijs2005/facekeeper/internal/app"
	"github.com/dmitrijs2005/facekeeper/internal/buildinfo"
	"github.com/dmitrijs2005/facekeeper/internal/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	a, err := app.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	// Interrupt is left to the shell, which uses it to cancel a face check.
	// memguard purges and exits after the handler returns.
	memguard.CatchSignal(func(os.Signal) { a.Close(ctx) }, syscall.SIGTERM)
	defer memguard.Purge()

	a.Run(ctx)

}
