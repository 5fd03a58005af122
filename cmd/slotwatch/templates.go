package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestrelwms/slotwatch/internal/config"
)

func templatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage warehouse templates",
	}
	cmd.AddCommand(templatesListCmd())
	cmd.AddCommand(templatesImportCmd())
	return cmd
}

func templatesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured warehouse templates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStorage(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			templates, err := store.GetTemplates(cmd.Context())
			if err != nil {
				return err
			}
			if len(templates) == 0 {
				fmt.Println("No templates configured. Import one with 'slotwatch templates import <catalog.yaml>'.")
				return nil
			}

			for _, tmpl := range templates {
				fmt.Printf("%s  %q  %dx%dx%d levels %s  (%d slots, default capacity %d, zone %s, %d special areas)\n",
					tmpl.ID, tmpl.Name,
					tmpl.Aisles, tmpl.RacksPerAisle, tmpl.PositionsPerRack, tmpl.LevelNames,
					tmpl.TheoreticalLocations(), tmpl.DefaultCapacity, tmpl.DefaultZone,
					len(tmpl.SpecialAreas))
			}
			return nil
		},
	}
}

func templatesImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <catalog.yaml>",
		Short: "Import warehouse templates from a YAML catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := config.LoadTemplateCatalog(args[0])
			if err != nil {
				return err
			}

			store, err := openStorage(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			for i := range templates {
				if err := store.SaveTemplate(cmd.Context(), &templates[i]); err != nil {
					return err
				}
			}
			fmt.Printf("Imported %d templates.\n", len(templates))
			return nil
		},
	}
}
