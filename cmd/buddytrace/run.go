/*
 * Copyright 2026 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cloudwego/buddies/buddy"
)

var (
	runLevels int
	runTree   bool
	runDepth  int
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().IntVar(&runLevels, "levels", 0, "Override the level count of the trace")
	cmd.Flags().BoolVar(&runTree, "tree", false, "Draw the final block tree")
	cmd.Flags().IntVar(&runDepth, "depth", 4, "Sizes drawn below the largest one with --tree")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <trace.yaml>",
		Short: "Replay a trace and print the resulting bitmap",
		Long: `The run command replays the steps of a trace file, checks the expectations
attached to them and validates the tree after every step.

Example:
  buddytrace run scenarios.yaml
  buddytrace run scenarios.yaml --levels 5 --tree
  buddytrace run scenarios.yaml --log-level debug`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd.OutOrStdout(), args[0])
		},
	}
}

func runTrace(w io.Writer, path string) error {
	tr, err := loadTrace(path)
	if err != nil {
		return err
	}
	if runLevels > 0 {
		tr.Levels = runLevels
	}
	a, err := buddy.NewBytesAllocator(tr.Levels, nil)
	if err != nil {
		return err
	}
	defer a.Release()
	t := a.Tree()

	logger.Info("replaying trace", "path", path, "levels", tr.Levels, "steps", len(tr.Steps))
	rep, err := replay(t, tr, logger)
	if err != nil {
		return err
	}

	fmt.Fprint(w, renderBits(t))
	fmt.Fprintf(w, "digest: %016x\n", t.Digest())
	fmt.Fprintf(w, "available: %d/%d\n", t.Available(), t.Cap())
	if runTree {
		fmt.Fprint(w, renderTree(t, runDepth))
	}
	for _, f := range rep.Failures {
		fmt.Fprintln(w, "FAIL", f)
	}
	if len(rep.Failures) > 0 {
		return fmt.Errorf("%d of %d steps failed", len(rep.Failures), rep.Steps)
	}
	fmt.Fprintf(w, "ok: %d steps\n", rep.Steps)
	return nil
}
