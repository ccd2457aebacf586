// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"strconv"
	"time"
)

// Seconds is a [pflag.Value] holding a non-negative whole number of
// seconds, for flags such as --timeout whose command-line form is a
// count rather than a Go duration string.
type Seconds time.Duration

// Set parses a decimal count of seconds.
func (s *Seconds) Set(value string) error {
	count, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%q is not a whole number of seconds", value)
	}
	if count < 0 {
		return fmt.Errorf("must not be negative, got %d", count)
	}
	*s = Seconds(time.Duration(count) * time.Second)
	return nil
}

func (s *Seconds) String() string {
	return strconv.FormatInt(int64(time.Duration(*s)/time.Second), 10)
}

func (s *Seconds) Type() string { return "seconds" }

// Duration returns the value as a time.Duration.
func (s Seconds) Duration() time.Duration { return time.Duration(s) }
