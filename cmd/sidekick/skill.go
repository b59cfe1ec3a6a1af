package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hmarward/sidekick/pkg/presenter"
	"github.com/hmarward/sidekick/pkg/skills"
)

var skillCmd = &cobra.Command{
	Use:   "skill",
	Short: "Manage sidekick skills",
	Long:  `List and inspect skills discovered from SKILL.md files.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var skillListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all installed skills",
	Run: func(_ *cobra.Command, _ []string) {
		discovery, err := skills.NewDiscovery(skills.WithDefaultDirs())
		if err != nil {
			presenter.Error(err, "Failed to initialise skill discovery")
			os.Exit(1)
		}

		allSkills, err := discovery.DiscoverSkills()
		if err != nil {
			presenter.Warning(fmt.Sprintf("Some skills failed to load: %v", err))
		}

		if len(allSkills) == 0 {
			presenter.Info("No skills installed")
			return
		}

		names := make([]string, 0, len(allSkills))
		for name := range allSkills {
			names = append(names, name)
		}
		sort.Strings(names)

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tDIRECTORY\tDESCRIPTION")
		for _, name := range names {
			skill := allSkills[name]
			description := skill.Description
			if len(description) > 60 {
				description = description[:57] + "..."
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", skill.Name, skill.Directory, description)
		}
		tw.Flush()
	},
}

var skillShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a skill's instructions",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		discovery, err := skills.NewDiscovery(skills.WithDefaultDirs())
		if err != nil {
			presenter.Error(err, "Failed to initialise skill discovery")
			os.Exit(1)
		}

		skill, err := discovery.GetSkill(args[0])
		if err != nil {
			presenter.Error(err, "Skill not found")
			os.Exit(1)
		}

		presenter.Section(skill.Name)
		presenter.Info(skill.Description)
		presenter.Info(fmt.Sprintf("Directory: %s", skill.Directory))
		if len(skill.AllowedTools) > 0 {
			presenter.Info(fmt.Sprintf("Allowed tools: %s", strings.Join(skill.AllowedTools, ", ")))
		}
		presenter.Separator()
		fmt.Println(skill.Content)
	},
}

func init() {
	skillCmd.AddCommand(skillListCmd)
	skillCmd.AddCommand(skillShowCmd)
}
