// Copyright 2026 The cfimageworker authors.
// SPDX-License-Identifier: Apache-2.0

// Package envy overlays environment variables onto command-line flags.
package envy

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// Parse exposes every flag in the default FlagSet (flag.CommandLine) as an
// environment variable of the form PREFIX_FLAGNAME. A flag that was not set
// explicitly on the command line takes its value from the environment when
// the variable is non-empty.
func Parse(prefix string) {
	update(prefix, flag.CommandLine)
}

func update(prefix string, fs *flag.FlagSet) {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})

	fs.VisitAll(func(f *flag.Flag) {
		name := strings.ReplaceAll(strings.ToUpper(f.Name), "-", "_")
		envVar := prefix + "_" + name

		if val := os.Getenv(envVar); val != "" && !set[f.Name] {
			fs.Set(f.Name, val)
		}

		f.Usage = fmt.Sprintf("%s [%s]", f.Usage, envVar)
	})
}
