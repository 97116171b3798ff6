// Command ssecast-cli publishes messages to an ssecast server and listens to
// its event stream.
//
//	ssecast-cli send                      interactive prompt, "exit" quits
//	ssecast-cli send --message "hello"    one-shot publish
//	ssecast-cli listen                    print messages until interrupted
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

	if err := newApp(os.Stdin, os.Stdout).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "ssecast-cli: %v\n", err)
		os.Exit(1)
	}
}
