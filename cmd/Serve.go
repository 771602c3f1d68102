package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/samuelfneumann/baselines/server"
	"github.com/spf13/cobra"
)

// ServeCommand returns the command that serves the results of runs
// over HTTP
func ServeCommand() *cobra.Command {
	var root, addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the results logs of all runs under a directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := interruptContext()
			defer cancel()

			srv := &http.Server{
				Addr:              addr,
				Handler:           server.NewRouter(root),
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				<-ctx.Done()
				shutdown, cancel := context.WithTimeout(context.Background(),
					5*time.Second)
				defer cancel()
				srv.Shutdown(shutdown)
			}()

			log.Printf("Serving runs in %v on %v", root, addr)
			err := srv.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&root, "root", "runs",
		"Directory holding one subdirectory per run")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Address to listen on")

	return cmd
}
