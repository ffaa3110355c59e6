// cmd/tools/registry-updater/main.go
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"visa-locker/pkg/registry"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var path string

	root := &cobra.Command{
		Use:          "registry-updater",
		Short:        "Maintain the destination registry offered by the questionnaire",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&path, "path", "configs/destinations.json", "path to registry file")

	var flag string
	var cities []string
	add := &cobra.Command{
		Use:     "add <country>",
		Short:   "Add a destination country",
		Example: `  registry-updater add Malta --flag 🇲🇹 --cities Valletta,Sliema`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return edit(cmd, path, func(reg *registry.DestinationRegistry) error {
				return reg.Add(registry.Destination{Country: args[0], Flag: flag, Cities: trimAll(cities)})
			})
		},
	}
	add.Flags().StringVar(&flag, "flag", "", "flag emoji shown before the country")
	add.Flags().StringSliceVar(&cities, "cities", nil, "comma separated city list")
	_ = add.MarkFlagRequired("cities")

	addCity := &cobra.Command{
		Use:   "add-city <country> <city>",
		Short: "Add a city to an existing destination",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return edit(cmd, path, func(reg *registry.DestinationRegistry) error {
				return reg.AddCity(args[0], args[1])
			})
		},
	}

	remove := &cobra.Command{
		Use:   "remove <country>",
		Short: "Remove a destination",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return edit(cmd, path, func(reg *registry.DestinationRegistry) error {
				return reg.Remove(args[0])
			})
		},
	}

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Validate the registry file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := registry.LoadRegistry(path)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if err := reg.Validate(); err != nil {
				return fmt.Errorf("registry validation failed: %w", err)
			}
			cmd.Printf("Registry validation passed. Found %d destinations.\n", len(reg.Destinations))
			return nil
		},
	}

	var seed bool
	list := &cobra.Command{
		Use:   "list",
		Short: "Print the destinations and their cities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := registry.Default()
			if !seed {
				var err error
				if reg, err = registry.LoadRegistry(path); err != nil {
					return fmt.Errorf("failed to load registry: %w", err)
				}
			}
			for _, d := range reg.Destinations {
				cmd.Printf("%s: %s\n", d.Label(), strings.Join(d.Cities, ", "))
			}
			return nil
		},
	}
	list.Flags().BoolVar(&seed, "builtin", false, "list the built-in destinations instead of the file")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the built-in destinations to the registry file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := registry.Default().Save(path, time.Now()); err != nil {
				return err
			}
			cmd.Printf("Wrote %s\n", path)
			return nil
		},
	}

	root.AddCommand(add, addCity, remove, validate, list, initCmd)
	return root
}

func edit(cmd *cobra.Command, path string, fn func(*registry.DestinationRegistry) error) error {
	reg, err := registry.LoadOrNew(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := fn(reg); err != nil {
		return err
	}
	if err := reg.Save(path, time.Now()); err != nil {
		return err
	}
	cmd.Printf("Updated %s\n", path)
	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
