// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Pairs is a repeatable flag collecting key/value pairs, such as
// template variables given as "-c title 'Weekly Report' -c a=1". A
// later pair replaces an earlier one with the same key.
//
// pflag flags take a single value, so [Command.Execute] rewrites the
// two-argument spelling "-c key value" to "-c key=value" before
// parsing. An argument after the flag that already contains "=" is
// taken as a complete pair.
type Pairs struct {
	keys   []string
	values map[string]string
}

var _ pflag.Value = (*Pairs)(nil)

// String implements pflag.Value.
func (p *Pairs) String() string {
	parts := make([]string, 0, len(p.keys))
	for _, key := range p.keys {
		parts = append(parts, key+"="+p.values[key])
	}
	return strings.Join(parts, ",")
}

// Set implements pflag.Value.
func (p *Pairs) Set(value string) error {
	key, pairValue, ok := strings.Cut(value, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value or key value, got %q", value)
	}
	if p.values == nil {
		p.values = map[string]string{}
	}
	if _, exists := p.values[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.values[key] = pairValue
	return nil
}

// Type implements pflag.Value.
func (p *Pairs) Type() string {
	return "key=value"
}

// Len returns the number of distinct keys given.
func (p *Pairs) Len() int {
	return len(p.keys)
}

// Map returns the pairs as a new, non-nil map.
func (p *Pairs) Map() map[string]string {
	result := make(map[string]string, len(p.keys))
	for _, key := range p.keys {
		result[key] = p.values[key]
	}
	return result
}

// joinPairArguments rewrites "-c key value" to "-c key=value" for every
// Pairs flag defined in flagSet. Arguments after "--" are untouched.
func joinPairArguments(args []string, flagSet *pflag.FlagSet) []string {
	spellings := map[string]bool{}
	flagSet.VisitAll(func(flag *pflag.Flag) {
		if _, ok := flag.Value.(*Pairs); !ok {
			return
		}
		spellings["--"+flag.Name] = true
		if flag.Shorthand != "" {
			spellings["-"+flag.Shorthand] = true
		}
	})
	if len(spellings) == 0 {
		return args
	}

	joined := make([]string, 0, len(args))
	for index := 0; index < len(args); index++ {
		arg := args[index]
		joined = append(joined, arg)
		if arg == "--" {
			joined = append(joined, args[index+1:]...)
			break
		}
		if !spellings[arg] || index+2 >= len(args) || strings.Contains(args[index+1], "=") {
			continue
		}
		joined = append(joined, args[index+1]+"="+args[index+2])
		index += 2
	}
	return joined
}
