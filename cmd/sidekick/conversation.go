package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hmarward/sidekick/pkg/conversations"
	"github.com/hmarward/sidekick/pkg/presenter"
)

var conversationCmd = &cobra.Command{
	Use:   "conversation",
	Short: "Manage saved conversations",
	Long:  `List, show and delete saved conversations.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var conversationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved conversations",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		store, err := conversations.GetConversationStore(ctx)
		if err != nil {
			presenter.Error(err, "Failed to open conversation store")
			os.Exit(1)
		}
		defer store.Close()

		summaries, err := store.Query(ctx, conversations.QueryOptions{
			SortBy:    "updated",
			SortOrder: "desc",
		})
		if err != nil {
			presenter.Error(err, "Failed to list conversations")
			os.Exit(1)
		}

		if len(summaries) == 0 {
			presenter.Info("No saved conversations")
			return
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tUPDATED\tMESSAGES\tSUMMARY")
		for _, summary := range summaries {
			title := summary.Summary
			if title == "" {
				title = summary.FirstMessage
			}
			if len(title) > 60 {
				title = title[:57] + "..."
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n",
				summary.ID, summary.UpdatedAt.Format("2006-01-02 15:04"), summary.MessageCount, title)
		}
		tw.Flush()
	},
}

var conversationShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved conversation",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		store, err := conversations.GetConversationStore(ctx)
		if err != nil {
			presenter.Error(err, "Failed to open conversation store")
			os.Exit(1)
		}
		defer store.Close()

		record, err := store.Load(ctx, args[0])
		if err != nil {
			presenter.Error(err, "Failed to load conversation")
			os.Exit(1)
		}

		presenter.Section(fmt.Sprintf("Conversation %s", record.ID))
		if record.Summary != "" {
			presenter.Info(fmt.Sprintf("Summary: %s", record.Summary))
		}
		presenter.Info(fmt.Sprintf("Created: %s", record.CreatedAt.Format("2006-01-02 15:04:05")))
		presenter.Info(fmt.Sprintf("Updated: %s", record.UpdatedAt.Format("2006-01-02 15:04:05")))
		presenter.Separator()
		fmt.Println(string(record.RawMessages))
	},
}

var conversationDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved conversation",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		store, err := conversations.GetConversationStore(ctx)
		if err != nil {
			presenter.Error(err, "Failed to open conversation store")
			os.Exit(1)
		}
		defer store.Close()

		if err := store.Delete(ctx, args[0]); err != nil {
			presenter.Error(err, "Failed to delete conversation")
			os.Exit(1)
		}
		presenter.Success(fmt.Sprintf("Deleted conversation %s", args[0]))
	},
}

func init() {
	conversationCmd.AddCommand(conversationListCmd)
	conversationCmd.AddCommand(conversationShowCmd)
	conversationCmd.AddCommand(conversationDeleteCmd)
}
