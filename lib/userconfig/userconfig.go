// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package userconfig reads and writes the per-user nbreport
// configuration file, which stores the GitHub credentials the
// publication service authenticates with:
//
//	github:
//	  username: exampleuser
//	  token: 0123abcd # nbreport token for exampleuser
//
// The comment on the token line records the token's note on GitHub, so
// users can find it later at github.com/settings/tokens. The file is
// written by "nbreport login" and read by every command that talks to
// the service. Other top-level keys and comments in the file are kept
// when the credentials are rewritten.
package userconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/nbreport/lib/config"
)

// Filename is the default configuration file name in the home
// directory.
const Filename = ".nbreport.yaml"

// EnvironmentVariable overrides the default path.
const EnvironmentVariable = "NBREPORT_CONFIG"

// GitHub holds the credentials stored under the "github" key.
type GitHub struct {
	Username string `yaml:"username"`
	Token    string `yaml:"token"`
}

// Path returns the user configuration path: $NBREPORT_CONFIG when set,
// otherwise ~/.nbreport.yaml.
func Path() string {
	if envPath := os.Getenv(EnvironmentVariable); envPath != "" {
		return envPath
	}
	homeDirectory, err := os.UserHomeDir()
	if err != nil {
		return Filename
	}
	return filepath.Join(homeDirectory, Filename)
}

// ReadGitHub reads the stored GitHub credentials. Returns an error
// directing the user to "nbreport login" when the file, the github
// section, or either field is missing.
func ReadGitHub(path string) (*GitHub, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no nbreport configuration found at %s; run \"nbreport login\" first", path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	value, err := config.Open(path).Get("github")
	if errors.Is(err, config.ErrKeyNotFound) {
		return nil, fmt.Errorf("%s has no github credentials; run \"nbreport login\" first", path)
	}
	if err != nil {
		return nil, err
	}

	section, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: github must be a mapping", path)
	}
	credentials := &GitHub{}
	credentials.Username, _ = section["username"].(string)
	credentials.Token, _ = section["token"].(string)
	if credentials.Username == "" || credentials.Token == "" {
		return nil, fmt.Errorf("%s: github username or token is missing; run \"nbreport login\" first", path)
	}
	return credentials, nil
}

// WriteGitHub stores GitHub credentials, replacing any previous ones.
// A non-empty note becomes the end-of-line comment on the token. The
// file is restricted to owner read/write since it holds a token.
func WriteGitHub(path string, credentials GitHub, note string) error {
	tokenNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: credentials.Token}
	if note != "" {
		tokenNode.LineComment = "# " + note
	}
	section := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Tag: "!!str", Value: "username"},
			{Kind: yaml.ScalarNode, Tag: "!!str", Value: credentials.Username},
			{Kind: yaml.ScalarNode, Tag: "!!str", Value: "token"},
			tokenNode,
		},
	}

	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0700); err != nil {
		return fmt.Errorf("creating configuration directory %s: %w", directory, err)
	}
	if err := config.Open(path).SetNode("github", section); err != nil {
		return err
	}
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("restricting permissions on %s: %w", path, err)
	}
	return nil
}
