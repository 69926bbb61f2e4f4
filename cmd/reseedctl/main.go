// reseedctl maintains the device catalog file offline. It ships the
// factory model tables and writes them into a user's slice of the catalog
// without going through the HTTP API, which is handy for preparing a fresh
// installation or repairing a catalog after manual edits.
package main

import (
	"fmt"
	"os"
	"sort"

	"repairbase/catalog"

	"github.com/spf13/cobra"
)

var (
	catalogPath string
	username    string
)

var rootCmd = &cobra.Command{
	Use:   "reseedctl",
	Short: "Maintain the repairbase device catalog file",
	Long: `reseedctl operates directly on the catalog JSON file used by the
repairbase server. The server must not be running while reseedctl writes,
otherwise the two processes overwrite each other's changes.`,
}

var appleCmd = &cobra.Command{
	Use:   "apple",
	Short: "Load the factory Apple smartphone model table",
	Long: `Replaces everything stored under Smartphone/Apple for the given user
with the built-in factory table (12 series, 41 models). Custom series and
models under that brand are dropped; other brands are untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		if err := store.Reseed("Smartphone", "Apple", catalog.AppleSmartphoneSeed()); err != nil {
			return fmt.Errorf("reseed: %w", err)
		}
		if err := store.SaveDeviceType("Smartphone"); err != nil {
			return err
		}
		if err := store.SaveBrand("Smartphone", "Apple"); err != nil {
			return err
		}
		fmt.Printf("Reseeded Smartphone/Apple for user %q.\n", username)
		printModels(store, "Smartphone", "Apple")
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list <device-type> <brand>",
	Short: "Print a brand's series and models",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		printModels(store, args[0], args[1])
		return nil
	},
}

func openStore() (*catalog.Store, error) {
	storage, err := catalog.NewFileStorage(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	return catalog.New(storage, catalog.StaticPrefix(username)), nil
}

func printModels(store *catalog.Store, deviceType, brand string) {
	grouped := store.ModelsForDeviceAndBrand(deviceType, brand)
	series := make([]string, 0, len(grouped))
	for name := range grouped {
		series = append(series, name)
	}
	sort.Strings(series)

	total := 0
	for _, name := range series {
		fmt.Printf("%s:\n", name)
		for _, model := range grouped[name] {
			fmt.Printf("  %s\n", model)
			total++
		}
	}
	fmt.Printf("%d series, %d models.\n", len(series), total)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&catalogPath,
		"catalog",
		"c",
		"./catalog.json",
		"path to the catalog JSON file",
	)
	rootCmd.PersistentFlags().StringVarP(
		&username,
		"user",
		"u",
		catalog.AnonymousUser,
		"username whose catalog slice to operate on",
	)

	rootCmd.AddCommand(appleCmd)
	rootCmd.AddCommand(listCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
