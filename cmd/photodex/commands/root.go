package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "photodex",
	Short: "Photodex - photo library metadata extraction and search",
	Long: `Reads a photo-management application's on-disk library database and
exposes its metadata (assets, albums, keywords, persons, burst groups,
cloud state) as a queryable snapshot.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("library", "", "Path to the library bundle")
	rootCmd.PersistentFlags().String("db", "", "Direct path to the library database file")
	rootCmd.PersistentFlags().String("work-dir", "/tmp/photodex", "Working directory for fetched libraries")
	rootCmd.PersistentFlags().String("s3-bucket", "", "S3 bucket holding archived libraries")
	rootCmd.PersistentFlags().String("s3-region", "us-east-1", "S3 region")

	viper.BindPFlag("library", rootCmd.PersistentFlags().Lookup("library"))
	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("work-dir", rootCmd.PersistentFlags().Lookup("work-dir"))
	viper.BindPFlag("s3-bucket", rootCmd.PersistentFlags().Lookup("s3-bucket"))
	viper.BindPFlag("s3-region", rootCmd.PersistentFlags().Lookup("s3-region"))
}
