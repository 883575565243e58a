/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/spf13/cobra"
	"github.com/suparena/ddbquery"
	"github.com/suparena/ddbquery/storagemodels"
)

func newCompileCommand(opts *rootOptions) *cobra.Command {
	var table, requestPath string
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Print the operation a request compiles to without running it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, err := loadRequest(requestPath)
			if err != nil {
				return err
			}
			db, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			desc, err := db.Table(table).Explain(cmd.Context(), ps)
			if err != nil {
				return err
			}
			return writeDescriptor(cmd.OutOrStdout(), opts.Format, desc)
		},
	}
	cmd.Flags().StringVarP(&table, "table", "t", "", "table name")
	cmd.Flags().StringVarP(&requestPath, "request", "r", "", "YAML request file")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

func newFindCommand(opts *rootOptions) *cobra.Command {
	var table, requestPath string
	cmd := &cobra.Command{
		Use:   "find",
		Short: "Run a request and print the matching records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, err := loadRequest(requestPath)
			if err != nil {
				return err
			}
			db, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := db.Table(table).Find(cmd.Context(), ps)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), opts.Format, res)
		},
	}
	cmd.Flags().StringVarP(&table, "table", "t", "", "table name")
	cmd.Flags().StringVarP(&requestPath, "request", "r", "", "YAML request file")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

func newCountCommand(opts *rootOptions) *cobra.Command {
	var (
		table, requestPath string
		segments           int
	)
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count the items matching a request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, err := loadRequest(requestPath)
			if err != nil {
				return err
			}
			db, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			var res storagemodels.CountResult
			if segments > 0 {
				res, err = db.Table(table).CountSegmented(cmd.Context(), ps, segments)
			} else {
				res, err = db.Table(table).Count(cmd.Context(), ps)
			}
			if err != nil {
				return err
			}
			return writeCount(cmd.OutOrStdout(), opts.Format, res)
		},
	}
	cmd.Flags().StringVarP(&table, "table", "t", "", "table name")
	cmd.Flags().StringVarP(&requestPath, "request", "r", "", "YAML request file")
	cmd.Flags().IntVarP(&segments, "segments", "s", 0, "split the count into this many parallel scan segments (1-100)")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

func newVersionCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := ddbquery.GetVersionInfo()
			w := cmd.OutOrStdout()
			if opts.Format == "json" {
				return writeJSON(w, info)
			}
			fmt.Fprintf(w, "ddbquery version %s (%s)\n", info.Version, info.Module)
			fmt.Fprintf(w, "Git commit: %s\n", info.GitCommit)
			fmt.Fprintf(w, "Build date: %s\n", info.BuildDate)
			fmt.Fprintf(w, "Go version: %s %s\n", info.GoVersion, info.Platform)
			fmt.Fprintf(w, "DynamoDB SDK: %s\n", info.DynamoDBVersion)
			return nil
		},
	}
}

// descriptorView is the printable form of a compiled operation.
type descriptorView struct {
	Operation         string            `json:"operation"`
	Table             string            `json:"table"`
	AccessPath        string            `json:"accessPath"`
	IndexName         string            `json:"indexName,omitempty"`
	KeyCondition      string            `json:"keyCondition,omitempty"`
	Filter            string            `json:"filter,omitempty"`
	Projection        string            `json:"projection,omitempty"`
	Names             map[string]string `json:"names,omitempty"`
	Values            map[string]any    `json:"values,omitempty"`
	Key               map[string]any    `json:"key,omitempty"`
	Keys              int               `json:"keys,omitempty"`
	Limit             int               `json:"limit,omitempty"`
	ScanForward       *bool             `json:"scanForward,omitempty"`
	CountOnly         bool              `json:"countOnly,omitempty"`
	ExclusiveStartKey map[string]any    `json:"exclusiveStartKey,omitempty"`
}

func newDescriptorView(desc *storagemodels.OperationDescriptor) (descriptorView, error) {
	v := descriptorView{
		Operation:    string(desc.Kind),
		Table:        desc.TableName,
		AccessPath:   "scan",
		IndexName:    desc.IndexName,
		KeyCondition: desc.KeyConditionExpression,
		Filter:       desc.FilterExpression,
		Projection:   desc.ProjectionExpression,
		Names:        desc.Names,
		Keys:         len(desc.Keys),
		Limit:        desc.Limit,
		ScanForward:  desc.ScanForward,
		CountOnly:    desc.CountOnly,
	}
	if desc.Access != nil {
		v.AccessPath = desc.Access.Index.String()
	} else if desc.Kind == storagemodels.OpBatchGetItem {
		v.AccessPath = string(storagemodels.AccessPrimary)
	}
	var err error
	if v.Values, err = plain(desc.Values); err != nil {
		return v, err
	}
	if v.Key, err = plain(desc.Key); err != nil {
		return v, err
	}
	if v.ExclusiveStartKey, err = plain(desc.ExclusiveStartKey); err != nil {
		return v, err
	}
	return v, nil
}

func plain(m map[string]types.AttributeValue) (map[string]any, error) {
	if len(m) == 0 {
		return nil, nil
	}
	var out map[string]any
	if err := attributevalue.UnmarshalMap(m, &out); err != nil {
		return nil, fmt.Errorf("failed to render attribute values: %w", err)
	}
	return out, nil
}

func writeDescriptor(w io.Writer, format string, desc *storagemodels.OperationDescriptor) error {
	v, err := newDescriptorView(desc)
	if err != nil {
		return err
	}
	if format == "json" {
		return writeJSON(w, v)
	}

	fmt.Fprintf(w, "operation:   %s\n", v.Operation)
	fmt.Fprintf(w, "table:       %s\n", v.Table)
	fmt.Fprintf(w, "access path: %s\n", v.AccessPath)
	if v.KeyCondition != "" {
		fmt.Fprintf(w, "key:         %s\n", v.KeyCondition)
	}
	if v.Filter != "" {
		fmt.Fprintf(w, "filter:      %s\n", v.Filter)
	}
	if v.Projection != "" {
		fmt.Fprintf(w, "projection:  %s\n", v.Projection)
	}
	for _, k := range sortedKeys(v.Names) {
		fmt.Fprintf(w, "  %s = %s\n", k, v.Names[k])
	}
	for _, k := range sortedKeys(v.Values) {
		fmt.Fprintf(w, "  %s = %v\n", k, v.Values[k])
	}
	return nil
}

func writeResult(w io.Writer, format string, res *storagemodels.Result) error {
	if format == "json" {
		return writeJSON(w, struct {
			Records []storagemodels.Record `json:"records"`
			Cursor  string                 `json:"cursor,omitempty"`
			Scanned int64                  `json:"scanned"`
		}{res.Records, res.Cursor, res.ScannedCount})
	}
	for _, rec := range res.Records {
		line, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(line))
	}
	fmt.Fprintf(w, "%d record(s), %d scanned\n", len(res.Records), res.ScannedCount)
	if res.Cursor != "" {
		fmt.Fprintf(w, "cursor: %s\n", res.Cursor)
	}
	for _, warning := range res.Warnings {
		fmt.Fprintf(w, "warning: %v\n", warning)
	}
	return nil
}

func writeCount(w io.Writer, format string, res storagemodels.CountResult) error {
	if format == "json" {
		return writeJSON(w, res)
	}
	fmt.Fprintf(w, "%d\n", res.Total)
	if res.Partial() {
		fmt.Fprintf(w, "partial: segments %v of %d were skipped\n", res.FailedSegments, res.Segments)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
