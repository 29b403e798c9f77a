package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/edaloom/internal/web"
)

var (
	srvAddr  string
	srvNoAI  bool
	srvTypes []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload page and JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		types, err := columnTypes(srvTypes)
		if err != nil {
			return err
		}
		addr := cfg.ListenAddr
		if cmd.Flags().Changed("addr") {
			addr = srvAddr
		}
		s, err := web.New(web.Config{
			MaxBytes:       cfg.MaxUploadBytes(),
			PreviewRows:    cfg.PreviewRows,
			ColumnTypes:    types,
			AllowedOrigins: cfg.AllowedOrigins,
			SkipAI:         srvNoAI,
		}, buildRecommender())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Listening on http://%s\n", addr)
		return s.ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (default from config, 127.0.0.1:8501)")
	serveCmd.Flags().BoolVar(&srvNoAI, "no-ai", false, "skip recommendation requests")
	serveCmd.Flags().StringArrayVar(&srvTypes, "type", nil, "force a column type as name=type (repeatable)")
}
