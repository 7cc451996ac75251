package main

import (
	"context"
	"fmt"

	"github.com/reaandrew/fxcopbridge/config"
	"github.com/reaandrew/fxcopbridge/core"
	"github.com/reaandrew/fxcopbridge/fxcop"
	"github.com/reaandrew/fxcopbridge/resources"
	"github.com/reaandrew/fxcopbridge/rules"
	"github.com/reaandrew/fxcopbridge/solution"
	log "github.com/sirupsen/logrus"
)

func buildSolution(cfg *config.Config) (*solution.Solution, error) {
	if len(cfg.Solution.Projects) > 0 {
		return solution.FromConfig(cfg.Solution.Projects, cfg.Solution.TestPatterns)
	}
	return solution.Discover(cfg.Solution.Root, cfg.Solution.TestPatterns)
}

// selectProject falls back to the only project of the solution when none is
// named.
func selectProject(cfg *config.Config, sol *solution.Solution) (string, error) {
	if cfg.Solution.Project != "" {
		return cfg.Solution.Project, nil
	}
	projects := sol.Projects()
	if len(projects) == 1 {
		return projects[0].Name, nil
	}
	return "", fmt.Errorf("the solution has %d projects, choose one with --project", len(projects))
}

// indexResources indexes the configured source directories, or every
// project directory when none are configured.
func indexResources(ctx context.Context, cfg *config.Config, sol *solution.Solution) (*resources.CSharpBridge, error) {
	dirs := cfg.Solution.Sources
	if len(dirs) == 0 {
		for _, project := range sol.Projects() {
			dirs = append(dirs, project.Directory)
		}
	}
	return resources.IndexSources(ctx, sol, dirs...)
}

func buildParser(ctx context.Context, cfg *config.Config, ruleFinder core.RuleFinder) (*fxcop.ResultParser, error) {
	sol, err := buildSolution(cfg)
	if err != nil {
		return nil, err
	}
	projectName, err := selectProject(cfg, sol)
	if err != nil {
		return nil, err
	}
	bridge, err := indexResources(ctx, cfg, sol)
	if err != nil {
		return nil, err
	}

	parser, err := fxcop.NewResultParser(sol, projectName, ruleFinder, bridge,
		fxcop.WithEncoding(cfg.Parser.Encoding),
		fxcop.WithStrictLineNumbers(cfg.Parser.StrictLineNumbers))
	if err != nil {
		return nil, err
	}
	log.Infof("Importing FxCop reports for project %s (test project: %t)", projectName, parser.Project().Test)
	return parser, nil
}

func loadRules(cfg *config.Config) (*rules.Repository, error) {
	return rules.Load(cfg.Rules.Files...)
}
