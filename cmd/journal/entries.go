package main

import (
	"fmt"

	"github.com/Veraticus/mood-journal/internal/cli"
	"github.com/Veraticus/mood-journal/internal/model"
	"github.com/Veraticus/mood-journal/internal/tui"
	"github.com/spf13/cobra"
)

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your entries, newest first",
		Example: `  journal list
  journal list --mood fear`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var filter model.EntryFilter
			if name, _ := cmd.Flags().GetString("mood"); name != "" {
				e, err := model.ParseEmotion(name)
				if err != nil {
					return err
				}
				filter.Mood = e
			}

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if _, err := a.requireUser(); err != nil {
				return err
			}

			if err := a.manager.Fetch(ctx); err != nil {
				return friendly(err)
			}
			a.manager.UpdateFilter(filter)
			cli.PrintEntries(cmd.OutOrStdout(), a.manager.FilteredEntries())
			return nil
		},
	}
	cmd.Flags().String("mood", "", "only entries scoring above 50% for this emotion")
	return cmd
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one entry with its full mood breakdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			entry, err := a.repo.Get(cmd.Context(), args[0])
			if err != nil {
				return friendly(err)
			}
			cli.PrintEntry(cmd.OutOrStdout(), entry)
			return nil
		},
	}
}

func deleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an entry",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				p := cli.NewPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
				answer, err := p.Ask(fmt.Sprintf("Delete entry %s? [y/N]", args[0]))
				if err != nil {
					return err
				}
				if answer != "y" && answer != "Y" && answer != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Kept."))
					return nil
				}
			}

			if err := a.repo.Delete(cmd.Context(), args[0]); err != nil {
				return friendly(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted."))
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	return cmd
}

func browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse entries in an interactive view",
		Long: `Browse entries in a full-screen view.

Keys: ↑/↓ move, f cycles the mood filter, c clears it, d deletes the
selected entry, r refreshes and q quits. Signing out from another terminal
empties the view.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if _, err := a.requireUser(); err != nil {
				return err
			}

			if err := a.auth.Watch(ctx); err != nil {
				a.logger.Warn("not following session changes", "error", err)
			}
			stop := a.manager.BindAuth(ctx, a.auth)
			defer stop()

			return tui.Run(ctx, a.manager, tui.Options{
				Input:  cmd.InOrStdin(),
				Output: cmd.OutOrStdout(),
			})
		},
	}
}
