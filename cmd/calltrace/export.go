package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/callsite/calltrace/trace"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <trace.json>",
	Short: "Write a saved trace as a self-contained HTML document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		output := exportOutput
		if output == "" {
			output = cfg.Output
		}
		tr, err := loadTrace(args[0])
		if err != nil {
			return err
		}
		if err := os.WriteFile(output, trace.RenderDocument(tr), 0644); err != nil {
			return errors.Wrapf(err, "writing %s", output)
		}
		fmt.Printf("Interactive trace saved to %s\n", output)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (overrides config)")
}
