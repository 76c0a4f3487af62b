// Command boofuzz drives a protocol fuzzing session from the command
// line: fuzz (run the full graph traversal, or a named/indexed/path
// subset), resume (the same, reading skip from a persisted session
// file), and status (print the last-known progress snapshot from a
// running session's web status port).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/windyware/boofuzz/internal/config"
	"github.com/windyware/boofuzz/internal/fuzzlog"
	"github.com/windyware/boofuzz/internal/logging"
	"github.com/windyware/boofuzz/internal/session"
	"github.com/windyware/boofuzz/internal/webstatus"
)

var (
	configPath string
	nodeName   string
	nodePath   string
	caseIndex  int
	statusURL  string
)

func main() {
	root := &cobra.Command{
		Use:   "boofuzz",
		Short: "network-protocol fuzzing engine",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "boofuzz.toml", "session configuration file")

	fuzzCmd := &cobra.Command{
		Use:   "fuzz",
		Short: "run a fuzzing session",
		RunE:  runFuzz,
	}
	fuzzCmd.Flags().StringVar(&nodeName, "node", "", "fuzz the request with this name reached directly from root (same as --path with one name)")
	fuzzCmd.Flags().StringVar(&nodePath, "path", "", "restrict to one exact root->...->node path")
	fuzzCmd.Flags().IntVar(&caseIndex, "case", 0, "execute only this one global case index")

	resumeCmd := &cobra.Command{
		Use:   "resume",
		Short: "resume a fuzzing session from its persisted state file",
		RunE:  runFuzz,
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "print a running session's last-known status",
		RunE:  runStatus,
	}
	statusCmd.Flags().StringVar(&statusURL, "url", "http://127.0.0.1:26000/status", "status endpoint to query")

	root.AddCommand(fuzzCmd, resumeCmd, statusCmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runFuzz(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logging.SetLevel("info")
	logger := fuzzlog.NewTextLogger(logging.Root())
	sess := session.New(cfg.ToSessionOptions(), logger)

	// Graph construction (targets, requests, edges) is specific to the
	// protocol under test and belongs in a harness built against this
	// library; this entry point only drives whatever graph that harness
	// has already assembled; this command registers no targets, requests
	// or edges of its own.

	if cfg.WebPort > 0 {
		srv := webstatus.New(cfg.WebPort, sess.Snapshot, logging.Root())
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logging.Root().Warn("web status server stopped", "err", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case nodeName != "":
		err = sess.FuzzByName(ctx, nodeName)
	case nodePath != "":
		err = sess.FuzzSingleNodeByPath(ctx, nodePath)
	case caseIndex > 0:
		err = sess.FuzzSingleCase(ctx, caseIndex)
	default:
		err = sess.Fuzz(ctx)
	}
	return err
}

func runStatus(cmd *cobra.Command, args []string) error {
	resp, err := http.Get(statusURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var snap session.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"global index", "total mutations", "paused", "failed cases"})
	t.AppendRow(table.Row{snap.GlobalIndex, snap.TotalMutations, snap.Paused, len(snap.Failures)})
	t.Render()
	return nil
}
