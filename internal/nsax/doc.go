// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

/*
Package nsax implements the REST client for the NSA-X backend API.

It owns the full session/token plumbing the rest of the console builds on:

  - TokenStore: the two bearer tokens in durable local storage, optionally
    sealed at rest (tokens.go, seal.go)
  - Client: the request wrapper that attaches the bearer header, classifies
    responses, and absorbs the 401 refresh-and-retry flow (client.go)
  - RefreshCoordinator: at most one in-flight token refresh system-wide,
    concurrent callers share the outcome (refresh.go)
  - typed endpoint methods for every consumed backend route (api.go)
  - a circuit-breaker wrapper for the unauthenticated health probe
    (breaker.go)

The 401 contract: a failed authenticated request triggers exactly one refresh
attempt and, on success, exactly one retry of the original request. If the
refresh fails the store is cleared, the session-expired hook fires, and
ErrSessionExpired is returned. There is never a second retry.
*/
package nsax
