package cmd

import (
	"fmt"
	"os"

	"github.com/byxorna/orderpane/pkg/backend"
	v1 "github.com/byxorna/orderpane/pkg/types/v1"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// seedFile is the same layout the fs backend stores.
type seedFile struct {
	Documents []v1.Record `yaml:"documents"`
}

var seedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Load documents into the local backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := homedir.Expand(args[0])
		if err != nil {
			return err
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var f seedFile
		if err := yaml.Unmarshal(b, &f); err != nil {
			return fmt.Errorf("unable to parse %s: %w", path, err)
		}

		store, err := openBackend(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		seeder, err := backend.Seeder(store)
		if err != nil {
			return err
		}
		if err := seeder.Seed(cmd.Context(), f.Documents); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d documents into %s\n", len(f.Documents), store.Name())
		return nil
	},
}
