package main

import (
	"errors"
	"fmt"

	"github.com/Veraticus/mood-journal/internal/cli"
	"github.com/Veraticus/mood-journal/internal/common"
	"github.com/Veraticus/mood-journal/internal/sheets"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export entries to other tools",
	}
	cmd.AddCommand(exportSheetsCmd())
	return cmd
}

func exportSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Export entries and a mood summary to Google Sheets",
		Long: `Write all of your entries to a Google Sheets spreadsheet, with a summary of
average emotion scores at the top.

Authentication uses one of:
  sheets.service_account_path   a service account key file
  sheets.client_id/client_secret with sheets.refresh_token or sheets.token_file

Run with --authorize once to fill sheets.token_file through the browser.
Without sheets.spreadsheet_id a new spreadsheet is created each time.`,
		Example: `  journal export sheets --authorize
  journal export sheets`,
		RunE: runExportSheets,
	}
	cmd.Flags().Bool("authorize", false, "run the browser consent flow and save the token")
	cmd.Flags().Int("port", sheets.DefaultCallbackPort, "local port for the OAuth callback")
	return cmd
}

func runExportSheets(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := sheets.FromSettings(a.cfg.Sheets)

	if authorize, _ := cmd.Flags().GetBool("authorize"); authorize {
		port, _ := cmd.Flags().GetInt("port")
		_, authErr := sheets.Authorize(ctx, cfg, port, func(url string) {
			fmt.Fprintln(out, cli.FormatInfo("Open this link to allow access to Google Sheets:"))
			fmt.Fprintln(out, url)
		}, a.logger)
		if errors.Is(authErr, sheets.ErrNoTokenFile) {
			return common.NewUserError("Set sheets.token_file to choose where the token is saved.", authErr)
		}
		if authErr != nil {
			return authErr
		}
		fmt.Fprintln(out, cli.FormatSuccess("Google Sheets access saved to "+cfg.TokenFile))
		return nil
	}

	if _, err := a.requireUser(); err != nil {
		return err
	}
	if err := a.manager.Fetch(ctx); err != nil {
		return friendly(err)
	}
	entries := a.manager.State().Entries
	if len(entries) == 0 {
		fmt.Fprintln(out, cli.FormatWarning("Nothing to export yet."))
		return nil
	}

	writer, err := sheets.NewWriter(ctx, cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to set up Google Sheets: %w", err)
	}
	id, err := writer.Write(ctx, entries)
	if err != nil {
		return fmt.Errorf("failed to export to Google Sheets: %w", err)
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Exported %d entries.", len(entries))))
	fmt.Fprintf(out, "  https://docs.google.com/spreadsheets/d/%s\n", id)
	if cfg.SpreadsheetID == "" {
		fmt.Fprintln(out, cli.FormatInfo("Set sheets.spreadsheet_id to "+id+" to update this spreadsheet next time."))
	}
	return nil
}
