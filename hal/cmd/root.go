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

// Package cmd wires the Cobra CLI on top of the hal core packages: two
// subcommands (build, liftover), shared logging setup and flag helpers.
// This package — and everything under cmd/hal — is the peripheral
// demonstration harness spec.md §1's Non-goals exclude from the
// specified core; hal/liftover and hal/mmapstore never import it.
package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/mattn/go-colorable"
	logging "github.com/shenwei356/go-logging"
	"github.com/spf13/cobra"
)

var log = logging.MustGetLogger("hal")

func init() {
	backend := logging.NewLogBackend(colorable.NewColorableStderr(), "", 0)
	backendFormatted := logging.NewBackendFormatter(backend, logging.MustStringFormatter(
		`%{color}[%{level:.4s}]%{color:reset} %{message}`,
	))
	logging.SetBackend(backendFormatted)
}

// checkError prints err and exits the process, the way the teacher's own
// commands abort on an unrecoverable condition.
func checkError(err error) {
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

// RootCmd is the top-level "hal" command.
var RootCmd = &cobra.Command{
	Use:   "hal",
	Short: "hal - a hierarchical alignment store and coordinate lift-over tool",
	Long:  "hal - build a mmap-backed hierarchical alignment store and project coordinates between its genomes",
}

// Execute runs the CLI; cmd/hal/main.go's sole job is calling this.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().IntP("threads", "j", runtime.NumCPU(), "number of CPUs to use")
	RootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")
}
