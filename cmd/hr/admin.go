package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hr-go/internal/httpapi"

	"github.com/spf13/cobra"
)

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot and restore the whole register",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Take a snapshot into the vault, or into --file",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		a, ctx, err := newApp(cmd, "BackupCreate")
		if err != nil {
			return err
		}
		defer a.Close()

		if file != "" {
			f, err := os.OpenFile(file, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
			if err != nil {
				return fmt.Errorf("creating %s: %w", file, err)
			}
			_, err = a.WriteSnapshot(ctx, f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}
			fmt.Printf("Snapshot written to %s\n", file)
			return nil
		}

		name, err := a.CreateBackup(ctx)
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}

		fmt.Printf("Snapshot stored as %s\n", name)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots held by the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, ctx, err := newApp(cmd, "BackupList")
		if err != nil {
			return err
		}
		defer a.Close()

		names, err := a.ListBackups()
		if err != nil {
			return err
		}

		if last, err := a.LastBackup(ctx); err == nil && last != nil {
			fmt.Printf("Last backup: %s\n\n", last.Format("2006-01-02 15:04:05"))
		}
		if len(names) == 0 {
			fmt.Println("No snapshots.")
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore [NAME]",
	Short: "Replace the register with a snapshot from the vault, or from --file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		if (file == "") == (len(args) == 0) {
			return fmt.Errorf("give either a snapshot name or --file")
		}

		a, ctx, err := newApp(cmd, "BackupRestore")
		if err != nil {
			return err
		}
		defer a.Close()

		if file != "" {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("opening %s: %w", file, err)
			}
			defer f.Close()
			if err := a.RestoreFrom(ctx, f); err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}
			fmt.Printf("Restored from %s\n", file)
			return nil
		}

		if err := a.RestoreBackup(ctx, args[0]); err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}
		fmt.Printf("Restored %s\n", args[0])
		return nil
	},
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the register over HTTP",
	Long: `Serve the register over HTTP.

The server does not authenticate requests. It trusts the X-Actor header for audit
attribution, so run it behind a proxy that authenticates callers and sets X-Actor.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, ctx, err := newApp(cmd, "Serve")
		if err != nil {
			return err
		}
		defer a.Close()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = a.Config().Server.Addr
		}

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := &http.Server{
			Addr:              addr,
			Handler:           httpapi.NewRouter(a),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			a.Logger().Info("listening", "addr", addr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serving: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database maintenance",
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show storage backends and schema state",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := newApp(cmd, "DBStatus")
		if err != nil {
			return err
		}
		defer a.Close()

		failed := false
		for _, st := range a.DBStatus() {
			state := "ok"
			if st.Err != nil {
				state = st.Err.Error()
				failed = true
			}
			fmt.Printf("%-12s  %-10s  %-40s  %s\n", st.Name, st.Backend, st.Detail, state)
		}
		if failed {
			return fmt.Errorf("one or more stores need attention")
		}
		return nil
	},
}

var dbBackupCmd = &cobra.Command{
	Use:   "backup DEST",
	Short: "Copy the SQLite database file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := newApp(cmd, "DBBackup")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.BackupDatabase(args[0]); err != nil {
			return err
		}

		fmt.Printf("Database copied to %s\n", args[0])
		return nil
	},
}

func init() {
	backupCreateCmd.Flags().StringP("file", "f", "", "Write the snapshot to this file instead of the vault")
	backupRestoreCmd.Flags().StringP("file", "f", "", "Read the snapshot from this file")
	serveCmd.Flags().String("addr", "", "Listen address (default from config)")

	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)

	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbBackupCmd)

	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dbCmd)
}
