package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Arbiter/internal/analysis"
	"github.com/MikeSquared-Agency/Arbiter/internal/config"
)

func newAnalyzeCommand() *cobra.Command {
	var (
		configPath string
		file       string
		method     string
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a decision file offline and print the results as JSON",
		Long: `Analyze a decision described in a YAML or JSON file without a server.

The file holds criteria, options with per-criterion scores, and optionally
weights, a criteria comparison matrix and per-criterion option matrices.
Use --all to run every method side by side.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.Logging, debugFlag(cmd), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			engine, err := analysis.NewEngine(cfg.AnalysisOptions(), logger)
			if err != nil {
				return err
			}

			d, err := loadDecisionFile(file)
			if err != nil {
				return err
			}

			var out interface{}
			if all {
				runs := make(map[analysis.Method]interface{}, 3)
				for _, m := range analysis.Methods() {
					results, err := engine.Analyze(cmd.Context(), d, m)
					if err != nil {
						runs[m] = map[string]string{"error": err.Error()}
						continue
					}
					runs[m] = results
				}
				out = runs
			} else {
				m := cfg.DefaultMethod()
				if method != "" {
					if m, err = analysis.ParseMethod(method); err != nil {
						return err
					}
				}
				results, err := engine.Analyze(cmd.Context(), d, m)
				if err != nil {
					return err
				}
				out = results
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to config file")
	cmd.Flags().StringVarP(&file, "file", "f", "", "decision file (.yaml, .yml or .json)")
	cmd.Flags().StringVarP(&method, "method", "m", "", "analysis method: simple, ahp or topsis")
	cmd.Flags().BoolVar(&all, "all", false, "run every method")
	_ = cmd.MarkFlagRequired("file")
	cmd.MarkFlagsMutuallyExclusive("method", "all")

	return cmd
}

// loadDecisionFile reads a decision snapshot. JSON is chosen by extension;
// anything else is parsed as YAML.
func loadDecisionFile(path string) (*analysis.Decision, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read decision: %w", err)
	}

	var d analysis.Decision
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &d)
	} else {
		err = yaml.Unmarshal(data, &d)
	}
	if err != nil {
		return nil, fmt.Errorf("parse decision %s: %w", filepath.Base(path), err)
	}
	if len(d.Criteria) == 0 {
		return nil, fmt.Errorf("decision %s has no criteria", filepath.Base(path))
	}
	return &d, nil
}
