package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adalundhe/fuse/core/config"
	"github.com/adalundhe/fuse/core/engine"
	"github.com/adalundhe/fuse/core/persistence"
	"github.com/adalundhe/fuse/core/providers"
	"github.com/adalundhe/fuse/core/signals"
)

// decisionRequest is the JSON shape both the CLI and the HTTP surface
// accept: the item, its author, and the pre-computed signal values from
// the upstream classifiers.
type decisionRequest struct {
	Item    signals.Item   `json:"item"`
	Author  signals.Author `json:"author"`
	Signals signals.Set    `json:"signals"`
}

var decideCmd = &cobra.Command{
	Use:   "decide -f request.json",
	Short: "Run one decision from a JSON request file",
	RunE:  runDecide,
}

var decideFile string

func init() {
	decideCmd.Flags().StringVarP(&decideFile, "file", "f", "", "request file (required)")
	_ = decideCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(decideCmd)
}

func runDecide(cmd *cobra.Command, _ []string) error {
	data, err := os.ReadFile(decideFile)
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	var req decisionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}

	thresholds, err := config.Load(configPath, overridePath)
	if err != nil {
		return err
	}

	store, err := persistence.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	eng, err := engine.New(engine.Config{
		Providers:  providers.Contextual(),
		Thresholds: thresholds,
		Repository: store,
	})
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx := providers.WithValues(cmd.Context(), req.Signals)
	result := eng.Decide(ctx, req.Item, req.Author)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
