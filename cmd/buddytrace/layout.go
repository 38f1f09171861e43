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

var layoutLevels int

func init() {
	cmd := newLayoutCmd()
	cmd.Flags().IntVar(&layoutLevels, "levels", 3, "Level count")
	rootCmd.AddCommand(cmd)
}

func newLayoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layout",
		Short: "Print the bit region layout for a level count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printLayout(cmd.OutOrStdout(), layoutLevels)
		},
	}
}

func printLayout(w io.Writer, levels int) error {
	if levels < 1 || levels > buddy.MaxLevels {
		return fmt.Errorf("levels must be in [1, %d], got %d", buddy.MaxLevels, levels)
	}
	fmt.Fprintf(w, "elements: %d\n", 1<<levels)
	fmt.Fprintf(w, "bits: %d (%d bytes)\n", buddy.BitsLen(levels), buddy.BitsSize(levels))
	for n := 0; n < levels; n++ {
		start, end := buddy.LevelRange(levels, n)
		fmt.Fprintf(w, "size %2d: bits [%d, %d) blocks=%d elements/block=%d\n", n, start, end, end-start, 1<<n)
	}
	return nil
}
