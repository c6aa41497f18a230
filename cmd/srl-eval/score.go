package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	srl "github.com/jamesainslie/go-srl"
	"github.com/jamesainslie/go-srl/dataset"
	"github.com/jamesainslie/go-srl/snapshot"
)

func newScoreCmd(root *rootOptions) *cobra.Command {
	var output outputOptions
	cmd := &cobra.Command{
		Use:   "score GOLD PREDICTIONS",
		Short: "Score saved predictions against a gold dataset",
		Long: `Score saved predictions against a gold dataset.

PREDICTIONS is either a JSON object keyed by sentence id (files ending in
.json) or a snapshot written by "srl-eval run --save".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.settings(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}

			gold, err := dataset.Load(args[0], cfg.NullTag)
			if err != nil {
				return err
			}
			pred, err := loadPredictions(args[1], cfg.NullTag)
			if err != nil {
				return err
			}
			logger.Info("datasets loaded", "gold", len(gold), "predictions", len(pred))

			mode, err := srl.ParsePredicateMode(cfg.PredicateMode)
			if err != nil {
				return err
			}
			rep, err := srl.BuildReport(cmd.Context(), gold, pred,
				srl.WithNullTag(cfg.NullTag),
				srl.WithWorkers(cfg.Workers),
				srl.WithPredicateMode(mode),
				srl.WithLogger(logger),
			)
			if err != nil {
				return err
			}
			return output.write(cmd.OutOrStdout(), rep)
		},
	}
	output.register(cmd)
	return cmd
}

func loadPredictions(path, nullTag string) (dataset.Predictions, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return dataset.LoadPredictions(path, nullTag)
	}
	return snapshot.Load(path, nullTag)
}
