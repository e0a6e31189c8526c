/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The GigaGrid Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package datasources

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"

	"github.com/google/gigagrid/core/columns"
	"github.com/google/gigagrid/core/store"
)

// configValidate checks decoded grid configs.
var configValidate *validator.Validate

func init() {
	configValidate = validator.New()
	configValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// GridConfig is the TOML definition of one grid.
//
//	title = "Sales"
//	subtotal_by = ["region", "city"]
//
//	[source]
//	type = "csv"
//	path = "sales.csv"
//
//	[[columns]]
//	tag = "amount"
//	format = "NUMBER"
//	aggregation = "SUM"
type GridConfig struct {
	Title  string       `toml:"title"`
	Source SourceConfig `toml:"source"`

	Columns []ColumnConfig `toml:"columns" validate:"unique=Tag,dive"`

	SubtotalBy        []string       `toml:"subtotal_by" validate:"dive,required"`
	SortBy            []SortConfig   `toml:"sort_by" validate:"dive"`
	FilterBy          []FilterConfig `toml:"filter_by" validate:"dive"`
	InitiallyExpanded [][]string     `toml:"initially_expanded"`
	InitiallySelected [][]string     `toml:"initially_selected"`

	MultiSelect  bool    `toml:"multi_select"`
	GrandTotal   bool    `toml:"grand_total"`
	MissingTitle string  `toml:"missing_title"`
	RowHeight    float64 `toml:"row_height" validate:"gte=0"`
	BodyHeight   float64 `toml:"body_height" validate:"gte=0"`
}

// SourceConfig names the loader and the file it reads. Options are passed
// to the loader as additional config keys.
type SourceConfig struct {
	Type      string            `toml:"type" validate:"required"`
	Path      string            `toml:"path" validate:"required"`
	HasHeader *bool             `toml:"has_header"`
	Delimiter string            `toml:"delimiter" validate:"omitempty,len=1"`
	Options   map[string]string `toml:"options"`
}

// ColumnConfig overrides or declares one column.
type ColumnConfig struct {
	Tag         string `toml:"tag" validate:"required"`
	Title       string `toml:"title"`
	Format      string `toml:"format" validate:"omitempty,oneof=STRING NUMBER"`
	Aggregation string `toml:"aggregation" validate:"omitempty,oneof=SUM AVERAGE COUNT COUNT_DISTINCT MIN MAX RANGE STDDEV MEDIAN WEIGHTED_AVERAGE"`
	WeightBy    string `toml:"weight_by" validate:"required_if=Aggregation WEIGHTED_AVERAGE"`
}

// SortConfig is one sort key.
type SortConfig struct {
	Tag       string `toml:"tag" validate:"required"`
	Direction string `toml:"direction" validate:"omitempty,oneof=ASC DESC"`
}

// FilterConfig is one filter.
type FilterConfig struct {
	Tag    string   `toml:"tag" validate:"required_unless=Type EXPR"`
	Type   string   `toml:"type" validate:"omitempty,oneof=IN NOT_IN EXPR"`
	Values []string `toml:"values"`
	Expr   string   `toml:"expr" validate:"required_if=Type EXPR"`
}

// ParseConfig decodes and validates a grid config.
func ParseConfig(data string) (*GridConfig, error) {
	cfg := &GridConfig{}
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse grid config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown grid config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadConfig reads a grid config file.
func ReadConfig(path string) (*GridConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := ParseConfig(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the config fields.
func (c *GridConfig) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s: failed %q", strings.TrimPrefix(fe.Namespace(), "GridConfig."), fe.Tag())
			}
			return fmt.Errorf("invalid grid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid grid config: %w", err)
	}
	return nil
}

// LoaderConfig returns the config map handed to the source loader. A
// relative path is resolved against baseDir.
func (c *GridConfig) LoaderConfig(baseDir string) map[string]string {
	config := make(map[string]string, len(c.Source.Options)+3)
	for k, v := range c.Source.Options {
		config[k] = v
	}
	path := c.Source.Path
	if baseDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	config["file_path"] = path
	if c.Source.HasHeader != nil && !*c.Source.HasHeader {
		config["has_header"] = "false"
	}
	if c.Source.Delimiter != "" {
		config["delimiter"] = c.Source.Delimiter
	}
	return config
}

// ColumnDefs merges the configured columns over the discovered ones.
// Configured columns come first in their configured order, followed by any
// discovered column the config does not mention.
func (c *GridConfig) ColumnDefs(discovered []columns.ColumnDef) []columns.ColumnDef {
	byTag := columns.ByTag(discovered)
	defs := make([]columns.ColumnDef, 0, len(discovered)+len(c.Columns))
	configured := make(map[string]bool, len(c.Columns))

	for _, cc := range c.Columns {
		def := byTag[cc.Tag]
		def.Tag = cc.Tag
		if cc.Title != "" {
			def.Title = cc.Title
		}
		if cc.Format != "" {
			def.Format = columns.Format(cc.Format)
		}
		if def.Format == "" {
			def.Format = columns.FormatString
		}
		def.Aggregation = columns.Aggregation(cc.Aggregation)
		def.WeightBy = cc.WeightBy
		defs = append(defs, def)
		configured[cc.Tag] = true
	}
	for _, d := range discovered {
		if !configured[d.Tag] {
			defs = append(defs, d)
		}
	}
	return defs
}

// Props builds the store props of the grid over ds.
func (c *GridConfig) Props(ds *Dataset, logger *log.Logger) *store.Props {
	defs := c.ColumnDefs(ds.Columns)
	byTag := columns.ByTag(defs)
	lookup := func(tag string) columns.ColumnDef {
		if d, ok := byTag[tag]; ok {
			return d
		}
		return columns.ColumnDef{Tag: tag}
	}

	p := &store.Props{
		Data:                 ds.Records,
		ColumnDefs:           defs,
		InitiallyExpanded:    c.InitiallyExpanded,
		InitiallySelected:    c.InitiallySelected,
		EnableMultiRowSelect: c.MultiSelect,
		ShowGrandTotal:       c.GrandTotal,
		MissingTitle:         c.MissingTitle,
		RowHeight:            c.RowHeight,
		BodyHeight:           c.BodyHeight,
		Logger:               logger,
	}
	for _, tag := range c.SubtotalBy {
		p.InitialSubtotalBys = append(p.InitialSubtotalBys, lookup(tag))
	}
	for _, s := range c.SortBy {
		dir := columns.Ascending
		if s.Direction != "" {
			dir = columns.Direction(s.Direction)
		}
		p.InitialSortBys = append(p.InitialSortBys, columns.SortBy{ColumnDef: lookup(s.Tag), Direction: dir})
	}
	for _, f := range c.FilterBy {
		typ := columns.FilterIn
		if f.Type != "" {
			typ = columns.FilterType(f.Type)
		}
		p.InitialFilterBys = append(p.InitialFilterBys, columns.FilterBy{
			ColTag: f.Tag,
			Type:   typ,
			Values: f.Values,
			Expr:   f.Expr,
		})
	}
	return p
}

// DisplayTitle returns the title, falling back to name.
func (c *GridConfig) DisplayTitle(name string) string {
	if c.Title != "" {
		return c.Title
	}
	return name
}
