// Copyright © 2023-2026 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"fmt"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
)

// getFlagString fetches a string flag, aborting the process on the
// (unreachable in practice, since cobra validates flag names at parse
// time) case of a typo'd flag name.
func getFlagString(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		checkError(fmt.Errorf("flag --%s: %w", name, err))
	}
	return v
}

func getFlagBool(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		checkError(fmt.Errorf("flag --%s: %w", name, err))
	}
	return v
}

func getFlagInt(cmd *cobra.Command, name string) int {
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		checkError(fmt.Errorf("flag --%s: %w", name, err))
	}
	return v
}

// getFlagNonNegativeInt fetches an int flag and rejects negative values,
// the way --threads must never be negative.
func getFlagNonNegativeInt(cmd *cobra.Command, name string) int {
	v := getFlagInt(cmd, name)
	if v < 0 {
		checkError(fmt.Errorf("flag --%s: value should be >= 0", name))
	}
	return v
}

// getFlagPositiveInt fetches an int flag and rejects values <= 0, the way
// --bed-type must pick one of the real BED widths.
func getFlagPositiveInt(cmd *cobra.Command, name string) int {
	v := getFlagInt(cmd, name)
	if v <= 0 {
		checkError(fmt.Errorf("flag --%s: value should be > 0", name))
	}
	return v
}

func getFlagStringSlice(cmd *cobra.Command, name string) []string {
	v, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		checkError(fmt.Errorf("flag --%s: %w", name, err))
	}
	return v
}

// isStdin reports whether file names standard input, the convention the
// rest of the pack's I/O helpers use throughout.
func isStdin(file string) bool {
	return file == "-"
}

// getFlagPathString fetches a string flag naming a filesystem path and
// expands a leading "~" to the user's home directory, so --tree/--hal/
// --in/--out all accept the same shorthand a user's own shell does.
func getFlagPathString(cmd *cobra.Command, name string) string {
	v := getFlagString(cmd, name)
	if v == "" || isStdin(v) {
		return v
	}
	expanded, err := homedir.Expand(v)
	if err != nil {
		checkError(fmt.Errorf("flag --%s: %w", name, err))
	}
	return expanded
}
