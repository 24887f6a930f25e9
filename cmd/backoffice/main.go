// Command backoffice runs the Haveli Housing back-office API.
//
//	backoffice serve            start the HTTP server
//	backoffice migrate          create collections, tables and indexes
//	backoffice seed             load the demo accounts and catalog
//
// Configuration comes from the environment and an optional .env file.
// --store and --port override STORE_DRIVER and PORT.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
