package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/deltad/internal/config"
	"github.com/fyrsmithlabs/deltad/internal/delta"
	"github.com/fyrsmithlabs/deltad/internal/lockfile"
	"github.com/fyrsmithlabs/deltad/internal/logging"
	"github.com/fyrsmithlabs/deltad/internal/store"
)

// Maintenance commands run by a human, not by the host, so unlike the
// hook entry points they may exit non-zero.

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all learned deltas with their confidence",
	RunE:  runList,
}

var resetCmd = &cobra.Command{
	Use:   "reset <delta-id>",
	Short: "Zero a delta's feedback counters and return it to the neutral prior",
	Args:  cobra.ExactArgs(1),
	RunE:  runReset,
}

// openStore builds the store the maintenance commands operate on.
func openStore() (*store.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(&cfg.Logging)
	if err != nil {
		return nil, err
	}

	path := cfg.State.DeltasPath()
	guard := lockfile.New(path,
		lockfile.WithAttempts(cfg.Lock.Attempts),
		lockfile.WithInterval(cfg.Lock.Interval.Duration()),
		lockfile.WithStaleAfter(cfg.Lock.StaleAfter.Duration()))
	return store.New(path, guard, logger), nil
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}

	all := s.Load()
	if len(all) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no deltas learned yet")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCONFIDENCE\t+AUTO\t-ANY\t+HUMAN\tCONDITION")
	for _, d := range all {
		fmt.Fprintf(w, "%s\t%.2f\t%d\t%d\t%d\t%s\n",
			d.ID, d.Confidence, d.HelpfulCount, d.NotHelpfulCount, d.HumanFeedbackCount, d.Condition)
	}
	return w.Flush()
}

func runReset(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}

	id := args[0]
	found := false
	err = s.Update(func(all []*delta.Delta) []*delta.Delta {
		for _, d := range all {
			if d.ID == id {
				d.Reset()
				found = true
			}
		}
		return all
	})
	if err != nil {
		return fmt.Errorf("failed to reset delta: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: %s", delta.ErrNotFound, id)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "delta %s reset to neutral confidence\n", id)
	return nil
}
