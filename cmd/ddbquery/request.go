/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"
	"os"

	"github.com/suparena/ddbquery/storagemodels"
	"gopkg.in/yaml.v3"
)

// request is the YAML form of a predicate set.
type request struct {
	Where []struct {
		Column string `yaml:"column"`
		Op     string `yaml:"op"`
		Values []any  `yaml:"values"`
	} `yaml:"where"`
	OrderBy *struct {
		Column    string `yaml:"column"`
		Direction string `yaml:"direction"`
	} `yaml:"orderBy"`
	Limit     int      `yaml:"limit"`
	Select    []string `yaml:"select"`
	CountOnly bool     `yaml:"countOnly"`
	Cursor    string   `yaml:"cursor"`
}

// loadRequest reads a request file. An empty path is an unconditional request.
func loadRequest(path string) (storagemodels.PredicateSet, error) {
	if path == "" {
		return storagemodels.Where(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return storagemodels.PredicateSet{}, fmt.Errorf("failed to read request: %w", err)
	}
	return parseRequest(data)
}

func parseRequest(data []byte) (storagemodels.PredicateSet, error) {
	var req request
	if err := yaml.Unmarshal(data, &req); err != nil {
		return storagemodels.PredicateSet{}, fmt.Errorf("failed to parse request: %w", err)
	}

	ps := storagemodels.PredicateSet{
		Limit:      req.Limit,
		Projection: req.Select,
		CountOnly:  req.CountOnly,
		Cursor:     req.Cursor,
	}
	for _, w := range req.Where {
		ps.Predicates = append(ps.Predicates, storagemodels.Predicate{
			Column:   w.Column,
			Operator: storagemodels.Operator(w.Op),
			Values:   w.Values,
		})
	}
	if req.OrderBy != nil {
		dir := storagemodels.Direction(req.OrderBy.Direction)
		if dir == "" {
			dir = storagemodels.Ascending
		}
		ps = ps.OrderedBy(req.OrderBy.Column, dir)
	}
	return ps, nil
}
