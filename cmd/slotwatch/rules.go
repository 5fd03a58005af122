package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestrelwms/slotwatch/internal/rules"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage rule definitions",
	}
	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesSeedCmd())
	cmd.AddCommand(rulesEnableCmd())
	cmd.AddCommand(rulesDisableCmd())
	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configured rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStorage(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			defs, err := store.GetAllRules(cmd.Context())
			if err != nil {
				return err
			}
			if len(defs) == 0 {
				fmt.Println("No rules configured. Run 'slotwatch rules seed' to install the defaults.")
				return nil
			}

			fmt.Printf("%-4s %-28s %-28s %-11s %-8s %s\n", "ID", "NAME", "TYPE", "PRECEDENCE", "ACTIVE", "PARAMETERS")
			for _, def := range defs {
				active := "yes"
				if !def.Active {
					active = "no"
				}
				params := string(def.Parameters)
				if params == "" {
					params = "-"
				}
				marker := ""
				if !rules.Known(def.Type) {
					marker = " (unknown type)"
				}
				fmt.Printf("%-4d %-28s %-28s %-11d %-8s %s%s\n",
					def.ID, def.Name, def.Type, def.Precedence, active, params, marker)
			}
			return nil
		},
	}
}

func rulesSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Install the default rule set",
		Long:  `Install the standard rules into an empty rules table. A table that already has rules is left untouched.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStorage(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			count, err := store.SeedDefaultRules(cmd.Context())
			if err != nil {
				return err
			}
			if count == 0 {
				fmt.Println("Rules already configured; nothing seeded.")
				return nil
			}
			fmt.Printf("Seeded %d default rules.\n", count)
			return nil
		},
	}
}

func rulesEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable <name>",
		Short: "Enable a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setRuleActive(cmd, args[0], true)
		},
	}
}

func rulesDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <name>",
		Short: "Disable a rule without deleting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setRuleActive(cmd, args[0], false)
		},
	}
}

func setRuleActive(cmd *cobra.Command, name string, active bool) error {
	store, err := openStorage(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.SetRuleActive(cmd.Context(), name, active); err != nil {
		return fmt.Errorf("failed to update rule %q: %w", name, err)
	}
	state := "enabled"
	if !active {
		state = "disabled"
	}
	fmt.Printf("Rule %q %s.\n", name, state)
	return nil
}
