// litedb-shell is an interactive shell over an in-process database.
// One session, one database; data lives for the life of the process.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kaan-kaya/litedb"
)

func main() {
	var (
		configPath string
		logLevel   string
	)

	root := &cobra.Command{
		Use:   "litedb-shell",
		Short: "Interactive shell over an embedded litedb database",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []litedb.Option{litedb.WithLogLevel(logLevel)}
			if configPath != "" {
				opts = append(opts, litedb.WithConfigFile(configPath))
			}
			db, err := litedb.Open(opts...)
			if err != nil {
				return err
			}
			defer db.Close()

			return runREPL(db)
		},
	}
	root.Flags().StringVar(&configPath, "config", "", "path to a config file")
	root.Flags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
