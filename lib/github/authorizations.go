// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package github

import "context"

// DefaultScopes are the token scopes nbreport requests. read:org lets
// the publication service check organization membership.
var DefaultScopes = []string{"read:org"}

// AuthorizationRequest describes a personal access token to create.
type AuthorizationRequest struct {
	Username string
	Password string

	// OneTimePassword answers a two-factor challenge. Leave empty on
	// the first attempt.
	OneTimePassword string

	// Scopes defaults to DefaultScopes.
	Scopes []string

	// Note labels the token on github.com/settings/tokens and must be
	// unique per user.
	Note    string
	NoteURL string
}

// Authorization is an issued personal access token.
type Authorization struct {
	Token string `json:"token"`
	Note  string `json:"note"`
}

// CreateAuthorization issues a personal access token. Returns a
// *TwoFactorRequiredError when the account needs a one-time password.
func (client *Client) CreateAuthorization(ctx context.Context, request AuthorizationRequest) (*Authorization, error) {
	scopes := request.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	body := struct {
		Scopes  []string `json:"scopes"`
		Note    string   `json:"note"`
		NoteURL string   `json:"note_url,omitempty"`
	}{
		Scopes:  scopes,
		Note:    request.Note,
		NoteURL: request.NoteURL,
	}

	var authorization Authorization
	err := client.post(ctx, "/authorizations", credentials{
		username:        request.Username,
		password:        request.Password,
		oneTimePassword: request.OneTimePassword,
	}, body, &authorization)
	if err != nil {
		return nil, err
	}
	client.logger.Debug("created github authorization", "username", request.Username, "note", authorization.Note)
	return &authorization, nil
}
