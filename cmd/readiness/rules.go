// cmd/readiness/rules.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"readiness-scorer/internal/readiness"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect scoring rules",
}

var rulesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the built-in rules as YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out, err := yaml.Marshal(readiness.DefaultRules())
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate <rules.yaml>",
	Short: "Check a rules file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rules, err := readiness.LoadRules(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "rules %s are valid\n", rules.Version)
		return nil
	},
}

func init() {
	rulesCmd.AddCommand(rulesShowCmd, rulesValidateCmd)
	rootCmd.AddCommand(rulesCmd)
}
