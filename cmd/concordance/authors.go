package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var authorsCmd = &cobra.Command{
	Use:   "authors",
	Short: "List the unique authors of the corpus",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApplication(settings, logger)
		if err != nil {
			return err
		}
		if _, err := app.loadCorpus(cmd.Context()); err != nil {
			return err
		}
		for _, author := range app.store.Authors() {
			fmt.Println(author)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("concordance %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(authorsCmd)
	rootCmd.AddCommand(versionCmd)
}
