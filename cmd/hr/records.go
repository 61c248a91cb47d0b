package main

import (
	"fmt"
	"os"
	"strings"

	"hr-go/internal/app"
	"hr-go/internal/hr"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// recordFlags maps CLI flags onto record field names.
var recordFlags = map[string]string{
	"nature":      "nature",
	"start":       "startDate",
	"occurred":    "dateOccurrence",
	"removal":     "removalDate",
	"party":       "responsibleParty",
	"severity":    "severity",
	"description": "description",
	"remarks":     "remarks",
	"measures":    "correctiveMeasures",
	"status":      "status",
}

func addRecordFlags(fs *pflag.FlagSet) {
	fs.String("json", "", "Fields as a JSON object, or @FILE to read them from a file")
	fs.String("nature", "", "Nature of the hindrance")
	fs.String("start", "", "Start date (YYYY-MM-DD)")
	fs.String("occurred", "", "Date of occurrence (YYYY-MM-DD)")
	fs.String("removal", "", "Removal date (YYYY-MM-DD)")
	fs.String("party", "", "Responsible party")
	fs.String("severity", "", "Severity")
	fs.String("description", "", "Description")
	fs.String("remarks", "", "Remarks")
	fs.String("measures", "", "Corrective measures")
	fs.String("status", "", "Stored status (Active, Resolved, Pending Approval)")
	fs.StringSlice("work", nil, "Affected work phase (repeatable)")
	fs.Int("delay", 0, "Estimated delay in days")
}

// recordFields collects the fields given on the command line. Flags override --json.
func recordFields(fs *pflag.FlagSet) (hr.Fields, error) {
	fields := hr.Fields{}
	if raw, _ := fs.GetString("json"); raw != "" {
		data := []byte(raw)
		if path, ok := strings.CutPrefix(raw, "@"); ok {
			var err error
			if data, err = os.ReadFile(path); err != nil {
				return nil, fmt.Errorf("reading %s: %w", path, err)
			}
		}
		parsed, err := app.ParseFields(data)
		if err != nil {
			return nil, err
		}
		fields = parsed
	}
	for flag, key := range recordFlags {
		if fs.Changed(flag) {
			v, _ := fs.GetString(flag)
			fields[key] = v
		}
	}
	if fs.Changed("work") {
		v, _ := fs.GetStringSlice("work")
		fields["workAffected"] = v
	}
	if fs.Changed("delay") {
		v, _ := fs.GetInt("delay")
		fields["estimatedDelay"] = v
	}
	return fields, nil
}

func addFilterFlags(fs *pflag.FlagSet) {
	fs.String("from", "", "Only records starting on or after this date")
	fs.String("to", "", "Only records starting on or before this date")
	fs.StringSlice("status", nil, "Derived status (repeatable)")
	fs.String("party", "", "Responsible party")
	fs.String("severity", "", "Severity")
	fs.String("nature", "", "Nature")
	fs.StringSlice("phase", nil, "Affected work phase (repeatable)")
}

func filterFromFlags(fs *pflag.FlagSet) *hr.Filter {
	f := &hr.Filter{}
	f.From, _ = fs.GetString("from")
	f.To, _ = fs.GetString("to")
	f.ResponsibleParty, _ = fs.GetString("party")
	f.Severity, _ = fs.GetString("severity")
	f.Nature, _ = fs.GetString("nature")
	f.WorkPhases, _ = fs.GetStringSlice("phase")
	statuses, _ := fs.GetStringSlice("status")
	for _, s := range statuses {
		f.Statuses = append(f.Statuses, hr.Status(s))
	}
	return f
}

func dateOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// record command
var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Manage hindrance records",
}

var recordAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a hindrance record",
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := recordFields(cmd.Flags())
		if err != nil {
			return err
		}

		a, ctx, err := newApp(cmd, "RecordAdd")
		if err != nil {
			return err
		}
		defer a.Close()

		h, err := a.AddRecord(ctx, fields)
		if err != nil {
			return fmt.Errorf("creating record: %w", err)
		}

		fmt.Printf("Created %s (%s)\n", h.SrNo, h.ID)
		return nil
	},
}

var recordUpdateCmd = &cobra.Command{
	Use:   "update REF",
	Short: "Update a hindrance record by id or serial number",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := recordFields(cmd.Flags())
		if err != nil {
			return err
		}
		if reopen, _ := cmd.Flags().GetBool("reopen"); reopen {
			fields["removalDate"] = nil
		}
		if len(fields) == 0 {
			return fmt.Errorf("nothing to update")
		}

		a, ctx, err := newApp(cmd, "RecordUpdate")
		if err != nil {
			return err
		}
		defer a.Close()

		h, err := a.UpdateRecord(ctx, args[0], fields)
		if err != nil {
			return fmt.Errorf("updating record: %w", err)
		}

		fmt.Printf("Updated %s\n", h.SrNo)
		return nil
	},
}

var recordDeleteCmd = &cobra.Command{
	Use:   "delete REF",
	Short: "Delete a hindrance record and its attachments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, ctx, err := newApp(cmd, "RecordDelete")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.DeleteRecord(ctx, args[0]); err != nil {
			return fmt.Errorf("deleting record: %w", err)
		}

		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

var recordListCmd = &cobra.Command{
	Use:   "list",
	Short: "List hindrance records with their derived status",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, ctx, err := newApp(cmd, "RecordList")
		if err != nil {
			return err
		}
		defer a.Close()

		views, err := a.ListRecords(ctx, filterFromFlags(cmd.Flags()))
		if err != nil {
			return err
		}

		if len(views) == 0 {
			fmt.Println("No records.")
			return nil
		}

		for _, v := range views {
			h := v.Record
			removal := ""
			if h.RemovalDate != nil {
				removal = *h.RemovalDate
			}
			fmt.Printf("%-7s  %-16s  %-10s  %-10s  %4dd  %-15s  %s\n",
				h.SrNo,
				v.EffectiveStatus,
				dateOrDash(h.StartDate),
				dateOrDash(removal),
				v.DaysPending,
				h.Text(hr.FieldResponsibleParty),
				h.Text(hr.FieldNature),
			)
		}
		return nil
	},
}

var recordShowCmd = &cobra.Command{
	Use:   "show REF",
	Short: "Show a hindrance record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, ctx, err := newApp(cmd, "RecordShow")
		if err != nil {
			return err
		}
		defer a.Close()

		v, err := a.GetRecord(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(v)
	},
}

var recordHistoryCmd = &cobra.Command{
	Use:   "history REF",
	Short: "View the audit trail of a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, ctx, err := newApp(cmd, "RecordHistory")
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.RecordHistory(ctx, args[0])
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No audit entries.")
			return nil
		}

		for _, e := range entries {
			fmt.Printf("%s  %-6s  %s\n",
				e.Timestamp.Format("2006-01-02 15:04:05"),
				e.Action,
				e.User,
			)
		}
		return nil
	},
}

// stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "View dashboard statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, ctx, err := newApp(cmd, "Stats")
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.Stats(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Total:              %d\n", s.Total)
		fmt.Printf("Active:             %d\n", s.Active)
		fmt.Printf("Overdue:            %d\n", s.Overdue)
		fmt.Printf("Pending Approval:   %d\n", s.PendingApproval)
		fmt.Printf("Resolved:           %d\n", s.Resolved)
		fmt.Printf("Avg Resolution:     %d days\n", s.AvgResolutionDays)
		fmt.Printf("Oldest Pending:     %d days\n", s.OldestPendingDays)
		fmt.Printf("Total Delay:        %d days\n", s.TotalDelayDays)
		fmt.Printf("On-time Rate:       %d%%\n", s.SuccessRate)
		if s.MostCommonNature != "" {
			fmt.Printf("Most Common Nature: %s\n", s.MostCommonNature)
		}
		for party, n := range s.ByResponsibleParty {
			fmt.Printf("  %-20s %d\n", party, n)
		}
		return nil
	},
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the register as an Excel workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")

		a, ctx, err := newApp(cmd, "Export")
		if err != nil {
			return err
		}
		defer a.Close()

		tmp, err := os.CreateTemp(".", ".hr-export-*")
		if err != nil {
			return fmt.Errorf("creating export file: %w", err)
		}
		defer os.Remove(tmp.Name())

		name, err := a.ExportRegister(ctx, tmp, filterFromFlags(cmd.Flags()))
		if cerr := tmp.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("exporting register: %w", err)
		}
		if out == "" {
			out = name
		}
		if err := os.Rename(tmp.Name(), out); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}

		fmt.Printf("Exported to %s\n", out)
		return nil
	},
}

func init() {
	addRecordFlags(recordAddCmd.Flags())
	addRecordFlags(recordUpdateCmd.Flags())
	recordUpdateCmd.Flags().Bool("reopen", false, "Clear the removal date")
	addFilterFlags(recordListCmd.Flags())
	addFilterFlags(exportCmd.Flags())
	exportCmd.Flags().StringP("output", "o", "", "Output file (default Hindrance_Register_<project>_<date>.xlsx)")

	recordCmd.AddCommand(recordAddCmd)
	recordCmd.AddCommand(recordUpdateCmd)
	recordCmd.AddCommand(recordDeleteCmd)
	recordCmd.AddCommand(recordListCmd)
	recordCmd.AddCommand(recordShowCmd)
	recordCmd.AddCommand(recordHistoryCmd)

	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)
}
