// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package github issues GitHub personal access tokens through the
// OAuth Authorizations API (POST /authorizations).
//
// nbreport authenticates to its publication service with a GitHub
// username and token, so the user's password never reaches the
// service. [Client.CreateAuthorization] exchanges a username and
// password for a token. Accounts with two-factor authentication answer
// the first attempt with a 401 carrying an X-GitHub-OTP challenge
// header; the client reports that as a [TwoFactorRequiredError] so the
// caller can prompt for a one-time password and retry with
// [AuthorizationRequest.OneTimePassword] set.
package github
