package commands

import (
	"fmt"

	"github.com/photodex/photodex/internal/config"
	"github.com/photodex/photodex/pkg/errors"
	"github.com/photodex/photodex/pkg/photodb"
	"github.com/spf13/cobra"
)

var albumsShared bool

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "List keywords by asset count",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCounts(func(ix *photodb.Index) []photodb.NameCount {
			return ix.KeywordCounts()
		})
	},
}

var personsCmd = &cobra.Command{
	Use:   "persons",
	Short: "List persons by asset count",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCounts(func(ix *photodb.Index) []photodb.NameCount {
			return ix.PersonCounts()
		})
	},
}

var albumsCmd = &cobra.Command{
	Use:   "albums",
	Short: "List albums by asset count",
	Long: `List album titles with asset counts, most frequent first. Album
records sharing a title are counted as one album. Use --shared for albums
owned by another cloud account (modern libraries only).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCounts(func(ix *photodb.Index) []photodb.NameCount {
			if albumsShared {
				return ix.SharedAlbumCounts()
			}
			return ix.AlbumCounts()
		})
	},
}

func init() {
	rootCmd.AddCommand(keywordsCmd)
	rootCmd.AddCommand(personsCmd)
	rootCmd.AddCommand(albumsCmd)
	albumsCmd.Flags().BoolVar(&albumsShared, "shared", false, "List shared albums instead of personal ones")
}

func runCounts(view func(*photodb.Index) []photodb.NameCount) error {
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

	counts := view(index)
	if len(counts) == 0 {
		fmt.Println("Nothing found")
		return nil
	}

	fmt.Printf("%-40s %8s\n", "NAME", "COUNT")
	fmt.Println("-------------------------------------------------")
	for _, nc := range counts {
		fmt.Printf("%-40s %8d\n", nc.Name, nc.Count)
	}

	return nil
}
