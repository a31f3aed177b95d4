package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pelotero/internal/auth"
	"pelotero/internal/cli"
	"pelotero/internal/log"
	gsheet "pelotero/internal/sheets/google"
	"pelotero/internal/storage"
	"pelotero/internal/worker"
)

func init() {
	rootCmd.AddCommand(hashPasswordCmd, migrateCmd, resyncCmd, sheetsAuthCmd)

	sheetsAuthCmd.Flags().String("port", "8085", "Local port for the OAuth redirect")
	sheetsAuthCmd.Flags().Duration("timeout", 5*time.Minute, "How long to wait for consent")
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
	Long: `Prints a bcrypt hash for ADMIN_PASSWORD_HASH. Without an argument the
password is read from the first line of stdin, which keeps it out of the
shell history.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var pw string
		if len(args) == 1 {
			pw = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			pw = strings.TrimRight(line, "\r\n")
		}
		if pw == "" {
			return errors.New("password cannot be empty")
		}
		h, err := auth.HashPassword(pw)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), h)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations to the SQLite store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cli.LoadEnvFile()
		cfg := cli.LoadAndValidateConfig()
		cli.SetupLogger(cfg, log.ComponentStorage)
		if cfg.DataBackend != "sqlite" {
			return fmt.Errorf("migrate needs DATA_BACKEND=sqlite, got %q", cfg.DataBackend)
		}
		if err := storage.RunMigrations(cfg.SQLiteDBPath); err != nil {
			return err
		}
		v, dirty, err := storage.SchemaVersion(cfg.SQLiteDBPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Schema at version %d (dirty=%t)\n", v, dirty)
		return nil
	},
}

var resyncCmd = &cobra.Command{
	Use:   "resync",
	Short: "Rewrite both spreadsheet tabs from the store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger := cli.Bootstrap(log.ComponentWorker)
		if !cfg.SheetsEnabled() {
			return errors.New("sheets mirror disabled: set GOOGLE_SPREADSHEET_ID")
		}
		ctx := cmd.Context()
		backend := cli.InitBackend(ctx, logger, cfg)
		defer backend.Close()

		mirror, err := gsheet.NewFromConfig(ctx, cfg)
		if err != nil {
			return err
		}
		if err := worker.NewMirrorWorker(backend.Backend, mirror).Resync(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Spreadsheet resynced")
		return nil
	},
}

var sheetsAuthCmd = &cobra.Command{
	Use:   "sheets-auth",
	Short: "Authorize the sheets mirror with a Google user account",
	Long: `Runs the OAuth consent flow for GOOGLE_OAUTH_CLIENT_JSON or
GOOGLE_OAUTH_CLIENT_FILE and saves the token to GOOGLE_OAUTH_TOKEN_FILE
(default token.json). Add http://localhost:<port>/callback to the client's
authorized redirect URIs first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cli.LoadEnvFile()
		secret, err := gsheet.ReadClientSecret(os.Getenv("GOOGLE_OAUTH_CLIENT_JSON"), os.Getenv("GOOGLE_OAUTH_CLIENT_FILE"))
		if err != nil {
			return err
		}
		oc, err := gsheet.OAuthConfig(secret)
		if err != nil {
			return err
		}

		port, _ := cmd.Flags().GetString("port")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		tok, err := gsheet.Authorize(ctx, oc, port, cmd.OutOrStdout())
		if err != nil {
			return err
		}

		out := os.Getenv("GOOGLE_OAUTH_TOKEN_FILE")
		if out == "" {
			out = "token.json"
		}
		if err := gsheet.SaveToken(out, tok); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved token to %s\n", out)
		return nil
	},
}
