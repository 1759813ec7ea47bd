package commands

import (
	"fmt"

	"github.com/photodex/photodex/internal/config"
	"github.com/photodex/photodex/pkg/errors"
	"github.com/photodex/photodex/pkg/photodb"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show library version and summary counts",
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "config load failed")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	index, err := photodb.Load(cfg.LibraryPath, cfg.DBPath)
	if err != nil {
		return errors.Wrap(err, "ingest failed")
	}

	fmt.Printf("Library version: %s (%s schema)\n", index.Version(), index.Family())
	fmt.Printf("Assets:          %d\n", index.Len())
	fmt.Printf("Keywords:        %d\n", len(index.Keywords()))
	fmt.Printf("Persons:         %d\n", len(index.Persons()))
	fmt.Printf("Albums:          %d\n", len(index.Albums()))
	if index.Family() == photodb.FamilyModern {
		fmt.Printf("Shared albums:   %d\n", len(index.SharedAlbums()))
	}

	return nil
}
