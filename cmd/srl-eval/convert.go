package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/go-srl/dataset"
)

func newConvertCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert CONLL [OUTPUT]",
		Short: "Convert a CoNLL-2009 file to a gold dataset",
		Long: `Convert a CoNLL-2009 file to a gold dataset.

Sentences are numbered from 0 in file order. The dataset is written to
OUTPUT, or to standard output when OUTPUT is omitted or "-".`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.settings(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			in, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer func() { _ = in.Close() }()

			gold, err := dataset.ReadCoNLL2009(bufio.NewReader(in), cfg.NullTag)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			if len(args) < 2 || args[1] == "-" {
				return gold.Encode(cmd.OutOrStdout())
			}
			return writeFile(args[1], gold.Encode)
		},
	}
	return cmd
}

func writeFile(path string, encode func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	w := bufio.NewWriter(f)
	if err := encode(w); err != nil {
		return err
	}
	return w.Flush()
}
