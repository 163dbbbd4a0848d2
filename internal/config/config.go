// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/kpauljoseph/pipespec/internal/classify"
	"github.com/kpauljoseph/pipespec/internal/dimensions"
	"github.com/kpauljoseph/pipespec/internal/extractor"
	"github.com/kpauljoseph/pipespec/internal/mass"
	"github.com/kpauljoseph/pipespec/internal/report"
)

const (
	DefaultConfigPath = "pipespec.yaml"
	EnvPrefix         = "PIPESPEC"
)

var ErrInvalid = errors.New("invalid configuration")

type ColumnRule struct {
	Field string   `yaml:"field" validate:"required,oneof=nomenclature quantity manufacturer"`
	AllOf []string `yaml:"all_of" validate:"dive,required"`
	AnyOf []string `yaml:"any_of" validate:"dive,required"`
}

type Config struct {
	InputDir   string `yaml:"input_dir" validate:"required"`
	OutputFile string `yaml:"output_file" validate:"required"`
	Material   struct {
		Name    string  `yaml:"name"`
		Density float64 `yaml:"density" validate:"gt=0"`
	} `yaml:"material"`
	Table struct {
		MinRows        int          `yaml:"min_rows" validate:"min=1"`
		HeaderScanRows int          `yaml:"header_scan_rows" validate:"min=1"`
		HeaderMarker   string       `yaml:"header_marker" validate:"required"`
		Columns        []ColumnRule `yaml:"columns" validate:"min=1,dive"`
	} `yaml:"table"`
	Classification struct {
		PipeKeywords    []string `yaml:"pipe_keywords" validate:"min=1,dive,required"`
		FittingKeywords []string `yaml:"fitting_keywords" validate:"dive,required"`
	} `yaml:"classification"`
	Report struct {
		SheetName    string `yaml:"sheet_name" validate:"required,max=31"`
		ColumnWidths struct {
			File         float64 `yaml:"file" validate:"gt=0"`
			Nomenclature float64 `yaml:"nomenclature" validate:"gt=0"`
			Quantity     float64 `yaml:"quantity" validate:"gt=0"`
			Mass         float64 `yaml:"mass" validate:"gt=0"`
			Manufacturer float64 `yaml:"manufacturer" validate:"gt=0"`
		} `yaml:"column_widths"`
	} `yaml:"report"`
}

// envOverrides lists the settings that may come from PIPESPEC_* variables.
type envOverrides struct {
	InputDir   string  `envconfig:"INPUT_DIR"`
	OutputFile string  `envconfig:"OUTPUT_FILE"`
	Density    float64 `envconfig:"DENSITY"`
	SheetName  string  `envconfig:"SHEET_NAME"`
}

func DefaultColumns() []ColumnRule {
	rules := extractor.DefaultRules()
	cols := make([]ColumnRule, len(rules))
	for i, r := range rules {
		cols[i] = ColumnRule{Field: string(r.Field), AllOf: r.AllOf, AnyOf: r.AnyOf}
	}
	return cols
}

func Default() *Config {
	var cfg Config
	cfg.InputDir = "./pdf"
	cfg.OutputFile = "specifications_full.xlsx"
	cfg.Material.Name = "PE100"
	cfg.Material.Density = mass.PE100Density
	cfg.Table.MinRows = extractor.DefaultMinRows
	cfg.Table.HeaderScanRows = extractor.DefaultHeaderScanRows
	cfg.Table.HeaderMarker = extractor.DefaultHeaderMarker
	cfg.Table.Columns = DefaultColumns()
	cfg.Classification.PipeKeywords = append([]string(nil), classify.DefaultPipeKeywords...)
	cfg.Classification.FittingKeywords = append([]string(nil), classify.DefaultFittingKeywords...)

	layout := report.DefaultLayout()
	cfg.Report.SheetName = layout.SheetName
	cfg.Report.ColumnWidths.File = layout.Widths.File
	cfg.Report.ColumnWidths.Nomenclature = layout.Widths.Nomenclature
	cfg.Report.ColumnWidths.Quantity = layout.Widths.Quantity
	cfg.Report.ColumnWidths.Mass = layout.Widths.Mass
	cfg.Report.ColumnWidths.Manufacturer = layout.Widths.Manufacturer
	return &cfg
}

// Load reads the YAML file at path on top of the defaults, then applies
// PIPESPEC_* environment overrides. A missing file is only an error when
// required is set; otherwise the defaults stand.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !required:
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("failed to read environment overrides: %w", err)
	}

	if env.InputDir != "" {
		c.InputDir = env.InputDir
	}
	if env.OutputFile != "" {
		c.OutputFile = env.OutputFile
	}
	if env.Density != 0 {
		c.Material.Density = env.Density
	}
	if env.SheetName != "" {
		c.Report.SheetName = env.SheetName
	}
	return nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	hasNomenclature := false
	for _, rule := range c.Table.Columns {
		if len(rule.AllOf) == 0 && len(rule.AnyOf) == 0 {
			return fmt.Errorf("%w: column rule %q has no terms", ErrInvalid, rule.Field)
		}
		if rule.Field == "nomenclature" {
			hasNomenclature = true
		}
	}
	if !hasNomenclature {
		return fmt.Errorf("%w: no column rule for nomenclature", ErrInvalid)
	}

	return nil
}

func (c *Config) ReportLayout() report.Layout {
	w := c.Report.ColumnWidths
	return report.Layout{
		SheetName: c.Report.SheetName,
		Widths: report.ColumnWidths{
			File:         w.File,
			Nomenclature: w.Nomenclature,
			Quantity:     w.Quantity,
			Mass:         w.Mass,
			Manufacturer: w.Manufacturer,
		},
	}
}

// ExtractorSettings builds the table extraction settings described by c.
func (c *Config) ExtractorSettings() extractor.Settings {
	rules := make([]extractor.ColumnRule, len(c.Table.Columns))
	for i, r := range c.Table.Columns {
		rules[i] = extractor.ColumnRule{Field: extractor.Field(r.Field), AllOf: r.AllOf, AnyOf: r.AnyOf}
	}

	return extractor.Settings{
		MinRows:        c.Table.MinRows,
		HeaderScanRows: c.Table.HeaderScanRows,
		HeaderMarker:   c.Table.HeaderMarker,
		Density:        c.Material.Density,
		Columns:        extractor.NewColumnResolver(rules),
		Classifier:     classify.New(c.Classification.PipeKeywords, c.Classification.FittingKeywords),
		Dimensions:     dimensions.Default,
	}
}
