package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/jameshorton2486/kollect-it-sub006/cmd/cli/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func apiClient() *client.APIClient {
	baseURL := viper.GetString("server")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return client.NewAPIClient(baseURL)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login and store an API token",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")

		token, err := apiClient().Login(username, password)
		if err != nil {
			return fmt.Errorf("login failed: %v", err)
		}

		viper.Set("token", token)
		if err := viper.WriteConfig(); err != nil {
			if err := viper.SafeWriteConfig(); err != nil {
				return fmt.Errorf("failed to save token: %v", err)
			}
		}
		fmt.Println("Login successful")
		return nil
	},
}

var reportsCmd = &cobra.Command{
	Use:     "reports",
	Short:   "List scheduled reports",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		reports, err := apiClient().ListReports()
		if err != nil {
			return fmt.Errorf("failed to list reports: %v", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCADENCE\tCHANNEL\tRECIPIENTS\tENABLED\tNEXT DUE")
		for _, r := range reports {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%t\t%s\n",
				r.ID, r.Name, r.Cadence, r.Channel, len(r.Recipients),
				r.Enabled, r.NextDueAt.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit [report_id]",
	Short: "Show recent send attempts for a report, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid report id: %s", args[0])
		}
		limit, _ := cmd.Flags().GetInt("limit")

		entries, err := apiClient().GetAudit(uint(id), limit)
		if err != nil {
			return fmt.Errorf("failed to fetch audit log: %v", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "SENT AT\tSTATUS\tRECIPIENTS\tERROR")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
				e.SentAt.Format(time.RFC3339), e.Status, e.RecipientCount, e.ErrorDetail)
		}
		return w.Flush()
	},
}

var enableCmd = &cobra.Command{
	Use:   "enable [report_id]",
	Short: "Enable a scheduled report",
	Args:  cobra.ExactArgs(1),
	RunE:  setEnabled(true),
}

var disableCmd = &cobra.Command{
	Use:   "disable [report_id]",
	Short: "Disable a scheduled report",
	Args:  cobra.ExactArgs(1),
	RunE:  setEnabled(false),
}

func setEnabled(enabled bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid report id: %s", args[0])
		}
		if err := apiClient().SetEnabled(uint(id), enabled); err != nil {
			return err
		}
		fmt.Println("OK")
		return nil
	}
}

var triggerCmd = &cobra.Command{
	Use:   "trigger [report_id]",
	Short: "Run a due-report pass now, or one report when an id is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid report id: %s", args[0])
			}
			resp, err := apiClient().TriggerReport(uint(id))
			if err != nil {
				return err
			}
			fmt.Println(string(resp))
			return nil
		}

		apiKey, _ := cmd.Flags().GetString("api-key")
		if apiKey == "" {
			apiKey = viper.GetString("trigger.apikey")
		}
		result, err := apiClient().TriggerBatch(apiKey)
		if err != nil {
			return err
		}
		fmt.Printf("attempted=%d succeeded=%d failed=%d skipped=%d\n",
			result.Attempted, result.Succeeded, result.Failed, result.Skipped)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show scheduler health",
	RunE: func(cmd *cobra.Command, args []string) error {
		health, err := apiClient().SchedulerHealth()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		for k, v := range health {
			fmt.Fprintf(w, "%s\t%v\n", k, v)
		}
		return w.Flush()
	},
}

func init() {
	loginCmd.Flags().String("username", "", "Username")
	loginCmd.Flags().String("password", "", "Password")
	auditCmd.Flags().Int("limit", 0, "Max entries to show (server caps at 50)")
	triggerCmd.Flags().String("api-key", "", "Pre-shared trigger key (batch mode)")
}
