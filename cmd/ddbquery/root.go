/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/suparena/ddbquery"
	"github.com/suparena/ddbquery/config"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	ConfigPath string
	Format     string // "json" | "text"
}

var validFormats = []string{"text", "json"}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "ddbquery",
		Short: "Compile and run predicate queries against DynamoDB",
		Long: `ddbquery picks the cheapest DynamoDB access path for a predicate request
(primary key, secondary index or scan), compiles it and optionally runs it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range validFormats {
				if f == opts.Format {
					return nil
				}
			}
			return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newCompileCommand(opts))
	cmd.AddCommand(newFindCommand(opts))
	cmd.AddCommand(newCountCommand(opts))
	cmd.AddCommand(newVersionCommand(opts))
	return cmd
}

// open loads the configuration and connects.
func (o *rootOptions) open(ctx context.Context) (*ddbquery.DB, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	return ddbquery.Open(ctx, cfg)
}
