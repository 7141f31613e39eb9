package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "reportctl",
	Short: "Operator CLI for the report scheduling engine",
	Long: `reportctl inspects and drives the recurring report engine:
list schedules, page through send audit history, flip reports on and off,
and trigger due-report passes.`,
}

func init() {
	viper.SetConfigName("reportctl")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.config")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig()

	rootCmd.PersistentFlags().String("server", "", "API server base URL")
	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(reportsCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
	rootCmd.AddCommand(triggerCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
