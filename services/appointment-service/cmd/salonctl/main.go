// Command salonctl runs migrations, inspects appointment data and drops cached
// results from the command line.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/md-rashed-zaman/salondesk/libs/config"
	"github.com/md-rashed-zaman/salondesk/libs/runtime"
	"github.com/spf13/cobra"
)

func main() {
	_ = config.LoadDotEnv()

	rootCmd := &cobra.Command{
		Use:          "salonctl",
		Short:        "Salon appointment admin tool",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(
		migrateCmd(),
		appointmentsCmd(),
		staffCmd(),
		cacheCmd(),
	)

	ctx, stop := runtime.SignalContext(context.Background())
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
