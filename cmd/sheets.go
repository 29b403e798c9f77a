package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/edaloom/internal/dataset"
)

var sheetsKind string

var sheetsCmd = &cobra.Command{
	Use:   "sheets <file>",
	Short: "List the sheets of an XLSX workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := readUpload(args[0], sheetsKind, cfg.MaxUploadBytes())
		if err != nil {
			return err
		}
		names, err := dataset.SheetNames(f, cfg.MaxUploadBytes())
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is a %s file and has no sheets\n", f.Name, f.Kind)
			return nil
		}
		for i, n := range names {
			fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sheetsCmd)
	sheetsCmd.Flags().StringVar(&sheetsKind, "kind", "", "file kind: csv|json|xlsx (default from extension)")
}
