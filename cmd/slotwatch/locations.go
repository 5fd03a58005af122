package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestrelwms/slotwatch/internal/location"
	"github.com/kestrelwms/slotwatch/internal/model"
)

func locationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locations",
		Short: "Manage explicit per-location overrides",
		Long: `Most locations need no configuration: the warehouse template derives them.
Explicit rows are for the exceptions, locations whose real capacity or type
differs from the template defaults.`,
	}
	cmd.AddCommand(locationsSetCmd())
	cmd.AddCommand(locationsDeactivateCmd())
	return cmd
}

func locationsSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <code>",
		Short: "Set or update an explicit location row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			warehouseID, _ := cmd.Flags().GetString("warehouse")
			capacity, _ := cmd.Flags().GetInt("capacity")
			locType, _ := cmd.Flags().GetString("type")
			unitType, _ := cmd.Flags().GetString("unit-type")
			special, _ := cmd.Flags().GetBool("special")

			// The engine looks locations up by canonical code, so store them
			// canonicalized no matter how the operator spelled them.
			code := location.Canonicalize(args[0])
			if code == model.MissingLocation {
				return fmt.Errorf("location code %q is empty after canonicalization", args[0])
			}

			store, err := openStorage(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			err = store.UpsertLocationMeta(cmd.Context(), warehouseID, []model.LocationMeta{{
				Code:     code,
				Capacity: capacity,
				UnitType: unitType,
				Type:     model.LocationType(locType),
				Special:  special,
			}})
			if err != nil {
				return err
			}
			fmt.Printf("Location %s updated in %s.\n", code, warehouseID)
			return nil
		},
	}

	cmd.Flags().String("warehouse", "", "warehouse ID (required)")
	cmd.Flags().Int("capacity", 1, "pallet capacity")
	cmd.Flags().String("type", string(model.TypeStorage), "location type (STORAGE, RECEIVING, STAGING, DOCK, TRANSITIONAL)")
	cmd.Flags().String("unit-type", model.DefaultUnitType, "storage unit type")
	cmd.Flags().Bool("special", false, "mark as a physically special location")
	_ = cmd.MarkFlagRequired("warehouse")

	return cmd
}

func locationsDeactivateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deactivate <code>",
		Short: "Soft-delete an explicit location row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			warehouseID, _ := cmd.Flags().GetString("warehouse")
			code := location.Canonicalize(args[0])

			store, err := openStorage(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeactivateLocation(cmd.Context(), warehouseID, code); err != nil {
				return fmt.Errorf("failed to deactivate %s: %w", code, err)
			}
			fmt.Printf("Location %s deactivated in %s.\n", code, warehouseID)
			return nil
		},
	}

	cmd.Flags().String("warehouse", "", "warehouse ID (required)")
	_ = cmd.MarkFlagRequired("warehouse")

	return cmd
}
