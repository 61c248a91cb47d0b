package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// attach command
var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "Manage record attachments",
}

var attachAddCmd = &cobra.Command{
	Use:   "add REF FILE",
	Short: "Attach a file to a record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mimeType, _ := cmd.Flags().GetString("type")

		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[1], err)
		}

		a, ctx, err := newApp(cmd, "AttachAdd")
		if err != nil {
			return err
		}
		defer a.Close()

		att, err := a.AddAttachment(ctx, args[0], args[1], data, mimeType)
		if err != nil {
			return fmt.Errorf("attaching: %w", err)
		}

		fmt.Printf("Attached %s (%s, %d bytes) as %s\n", att.Name, att.MimeType, len(data), att.ID)
		return nil
	},
}

var attachListCmd = &cobra.Command{
	Use:   "list REF",
	Short: "List the attachments of a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, ctx, err := newApp(cmd, "AttachList")
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.ListAttachments(ctx, args[0])
		if err != nil {
			return err
		}

		if len(list) == 0 {
			fmt.Println("No attachments.")
			return nil
		}

		for _, att := range list {
			fmt.Printf("%s  %s  %-24s  %s\n",
				att.ID,
				att.UploadedAt.Format("2006-01-02 15:04:05"),
				att.MimeType,
				att.Name,
			)
		}
		return nil
	},
}

var attachGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Save an attachment to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")

		a, ctx, err := newApp(cmd, "AttachGet")
		if err != nil {
			return err
		}
		defer a.Close()

		att, data, err := a.GetAttachment(ctx, args[0])
		if err != nil {
			return err
		}
		if out == "" {
			out = filepath.Base(att.Name)
		}
		if err := os.WriteFile(out, data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}

		fmt.Printf("Saved %s (%d bytes)\n", out, len(data))
		return nil
	},
}

var attachDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete an attachment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, ctx, err := newApp(cmd, "AttachDelete")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.DeleteAttachment(ctx, args[0]); err != nil {
			return fmt.Errorf("deleting attachment: %w", err)
		}

		fmt.Printf("Deleted attachment %s\n", args[0])
		return nil
	},
}

func init() {
	attachAddCmd.Flags().String("type", "", "MIME type (default: from extension or content)")
	attachGetCmd.Flags().StringP("output", "o", "", "Output file (default: the attachment's name)")

	attachCmd.AddCommand(attachAddCmd)
	attachCmd.AddCommand(attachListCmd)
	attachCmd.AddCommand(attachGetCmd)
	attachCmd.AddCommand(attachDeleteCmd)

	rootCmd.AddCommand(attachCmd)
}
