package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/callsite/calltrace/trace"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve <trace.json>",
	Short: "Serve a saved trace in the interactive viewer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		listen := serveListen
		if listen == "" {
			listen = cfg.Listen
		}
		return serveFile(args[0], listen)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (overrides config)")
}

func serveFile(file string, listen string) error {
	if _, err := os.Stat(file); err != nil {
		return errors.Wrapf(err, "stat %s", file)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		// re-read per request so a rewritten trace shows up on reload
		tr, err := loadTrace(file)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write(trace.RenderDocument(tr))
	})
	fmt.Printf("Serving %s on http://%s\n", file, displayAddr(listen))
	return errors.Wrap(http.ListenAndServe(listen, mux), "serve")
}

func displayAddr(listen string) string {
	if len(listen) > 0 && listen[0] == ':' {
		return "localhost" + listen
	}
	return listen
}
