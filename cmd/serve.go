package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gliderlabs/ssh"
	"github.com/jboxsh/jbox/core"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve jsh sessions over SSH.",
	Long: `Serve jsh sessions over SSH on the configured port.

Every session gets its own interpreter. Exec requests run a single line and
exit with its status, everything else gets an interactive shell.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		os.Stdin.Close()
		cmd.SilenceUsage = true
		log.Println("Initializing server...")

		configuration, err := loadConfig()
		if err != nil {
			return err
		}

		log.Println("Starting event log...")
		events, eventsFd, err := openEvents(configuration)
		if err != nil {
			return err
		}
		if eventsFd != nil {
			defer eventsFd.Close()
		}

		server, err := core.NewServer(configuration, events, newLogger(cmd, configuration))
		if err != nil {
			return err
		}

		serveErr := make(chan error, 1)
		go func() {
			serveErr <- server.ListenAndServe()
		}()

		sigs := make(chan os.Signal, 1)

		log.Println("- Starting interrupt handler")
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
		select {
		case sig := <-sigs:
			log.Printf("Got signal %q, terminating...", sig)
		case err := <-serveErr:
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		if err := <-serveErr; err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			return err
		}
		log.Print("Server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
