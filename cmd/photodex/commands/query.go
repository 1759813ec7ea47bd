package commands

import (
	"fmt"
	"sort"

	"github.com/photodex/photodex/internal/config"
	"github.com/photodex/photodex/pkg/errors"
	"github.com/photodex/photodex/pkg/photodb"
	"github.com/spf13/cobra"
)

var (
	queryKeywords []string
	queryPersons  []string
	queryAlbums   []string
	queryUUIDs    []string
	queryFrom     string
	queryTo       string
	queryImages   bool
	queryMovies   bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search the library by keyword, person, album, uuid and date",
	Long: `Search assets by any combination of criteria. Values within one flag
are ORed together; different flags are ANDed. Non-representative burst
members are never returned.`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringArrayVar(&queryKeywords, "keyword", nil, "Keyword to match (repeatable)")
	queryCmd.Flags().StringArrayVar(&queryPersons, "person", nil, "Person to match (repeatable)")
	queryCmd.Flags().StringArrayVar(&queryAlbums, "album", nil, "Album title to match (repeatable)")
	queryCmd.Flags().StringArrayVar(&queryUUIDs, "uuid", nil, "Asset uuid to match (repeatable)")
	queryCmd.Flags().StringVar(&queryFrom, "from", "", "Earliest capture date (2006-01-02 or RFC3339)")
	queryCmd.Flags().StringVar(&queryTo, "to", "", "Latest capture date, inclusive")
	queryCmd.Flags().BoolVar(&queryImages, "images", true, "Include images")
	queryCmd.Flags().BoolVar(&queryMovies, "movies", false, "Include movies")
}

func runQuery(cmd *cobra.Command, args []string) error {
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

	q := photodb.NewQuery()
	q.Keywords = queryKeywords
	q.Persons = queryPersons
	q.Albums = queryAlbums
	q.UUIDs = queryUUIDs
	q.Images = queryImages
	q.Movies = queryMovies

	if queryFrom != "" {
		if q.From, err = parseDate(queryFrom); err != nil {
			return err
		}
	}
	if queryTo != "" {
		if q.To, err = parseDate(queryTo); err != nil {
			return err
		}
	}

	assets := index.Search(q)
	if len(assets) == 0 {
		fmt.Println("No assets found")
		return nil
	}

	// Engine order is unspecified; sort for display only.
	sort.Slice(assets, func(i, j int) bool {
		if !assets[i].Date.Equal(assets[j].Date) {
			return assets[i].Date.Before(assets[j].Date)
		}
		return assets[i].UUID < assets[j].UUID
	})

	fmt.Printf("%-38s %-8s %-20s %-30s\n", "UUID", "KIND", "DATE", "NAME")
	fmt.Println("--------------------------------------------------------------------------------------------------")
	for _, a := range assets {
		name := a.Title
		if name == "" {
			name = a.Filename
		}
		fmt.Printf("%-38s %-8s %-20s %-30s\n",
			a.UUID, a.Kind, a.Date.Format("2006-01-02 15:04:05"), name)
	}
	fmt.Printf("\n%d assets\n", len(assets))

	return nil
}
