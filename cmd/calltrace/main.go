package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "calltrace",
	Short: "View saved call traces",
	Long: `View call traces saved by the calltrace library.

A trace saved with Save("trace.json") holds the structured call
forest; this tool renders it as an indented text tree, serves it in
the interactive viewer, or exports a self-contained HTML document.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.calltrace.yaml)")
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "calltrace: %v\n", err)
		os.Exit(1)
	}
}
