package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hmarward/sidekick/pkg/presenter"
	"github.com/hmarward/sidekick/pkg/statestore"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect the restart state",
	Long:  `Show and clear the key/value state that survives restarts.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

func openStateStore() *statestore.Store {
	workingDir, err := os.Getwd()
	if err != nil {
		presenter.Error(err, "Failed to resolve working directory")
		os.Exit(1)
	}
	return statestore.New(workingDir)
}

var stateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stored key/value pairs",
	Run: func(_ *cobra.Command, _ []string) {
		store := openStateStore()

		keys, err := store.Keys()
		if err != nil {
			presenter.Error(err, "Failed to read state")
			os.Exit(1)
		}

		if len(keys) == 0 {
			presenter.Info("No state stored")
			return
		}
		sort.Strings(keys)

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tVALUE")
		for _, key := range keys {
			value, _, err := store.Get(key)
			if err != nil {
				presenter.Error(err, fmt.Sprintf("Failed to read key %s", key))
				continue
			}
			fmt.Fprintf(tw, "%s\t%v\n", key, value)
		}
		tw.Flush()
	},
}

var stateGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a stored value",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		store := openStateStore()

		value, found, err := store.Get(args[0])
		if err != nil {
			presenter.Error(err, "Failed to read state")
			os.Exit(1)
		}
		if !found {
			presenter.Warning(fmt.Sprintf("Key %s not found", args[0]))
			os.Exit(1)
		}
		fmt.Printf("%v\n", value)
	},
}

var stateClearCmd = &cobra.Command{
	Use:   "clear [key]",
	Short: "Clear a key, or all state when no key is given",
	Args:  cobra.MaximumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		store := openStateStore()

		if len(args) == 1 {
			if err := store.Delete(args[0]); err != nil {
				presenter.Error(err, "Failed to delete key")
				os.Exit(1)
			}
			presenter.Success(fmt.Sprintf("Deleted key %s", args[0]))
			return
		}

		if err := store.Clear(); err != nil {
			presenter.Error(err, "Failed to clear state")
			os.Exit(1)
		}
		presenter.Success("Cleared all state")
	},
}

func init() {
	stateCmd.AddCommand(stateListCmd)
	stateCmd.AddCommand(stateGetCmd)
	stateCmd.AddCommand(stateClearCmd)
}
