// Command accredit is the accreditation review coordination CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	accredit "github.com/louisbranch/accredit/internal/cmd/accredit"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := accredit.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
