package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/odyssey-erp/lotledger/cmd/lotledger/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cmds cli.Commands
	parser, err := cli.New(ctx, &cmds)
	if err != nil {
		panic(err)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	err = kctx.Run()
	kctx.FatalIfErrorf(err)
}
