// Package cli wires the command line entry points.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"pagewright/presentation/fixturesite"
)

// NewRootCmd builds the pagewright command tree
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "pagewright",
		Short:        "Page-object browser testing toolkit",
		Long:         "Pagewright provides page objects, bounded-wait promises and a browser test harness.\nThe bundled fixture site exercises every helper against a real browser.",
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the fixture site for manual inspection or external test runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			// .env file is optional; real environment variables win
			_ = godotenv.Load()

			logger := logrus.New()
			logger.SetLevel(logrus.InfoLevel)
			logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

			if port != "" {
				if err := os.Setenv("SERVER_PORT", port); err != nil {
					return fmt.Errorf("failed to set server port: %w", err)
				}
			}

			site := fixturesite.New(logger)
			baseURL, err := site.Start()
			if err != nil {
				return fmt.Errorf("failed to start fixture site: %w", err)
			}
			logger.WithField("url", baseURL).Info("Fixture site listening")

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			<-stop

			logger.Info("Shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return site.Stop(ctx)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "port to listen on (defaults to SERVER_PORT or an ephemeral port)")
	return cmd
}
