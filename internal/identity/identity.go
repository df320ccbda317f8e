// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package identity resolves who is using the client and which organization
// they belong to. There is no authentication flow; identities are injected
// from configuration, with a built-in demo directory matching the sample
// data the backend seeds.
package identity

import (
	"fmt"
)

// =============================================================================
// TYPES
// =============================================================================

// RoleAdmin marks users who may upload org-wide documents.
const RoleAdmin = "admin"

// User is a resolved client identity.
type User struct {
	ID    string
	Name  string
	Role  string
	OrgID string
}

// IsAdmin reports whether the user can manage org-wide documents.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Organization describes the org the user operates within.
type Organization struct {
	ID   string
	Name string
}

// Provider resolves users and the active organization.
type Provider interface {
	// Lookup resolves a user id. The boolean is false for unknown ids.
	Lookup(userID string) (User, bool)
	// Organization returns the org all resolved users belong to.
	Organization() Organization
	// Users lists all known users, for identity switching.
	Users() []User
}

// =============================================================================
// DEMO DIRECTORY
// =============================================================================

// Demo sample data ids, matching the backend's seeded organization.
const (
	DemoUserID      = "user_sample_001"
	DemoAdminID     = "user_sample_002"
	DemoOrgID       = "org_sample_001"
	demoOrgName     = "Sample Organization"
	demoUserName    = "John Doe"
	demoAdminName   = "Jane Doe"
	demoDefaultRole = "user"
)

// demoProvider serves the fixed sample directory.
type demoProvider struct {
	users []User
	org   Organization
}

// NewDemoProvider returns a provider backed by the built-in sample
// directory: one regular user and one admin in the sample organization.
func NewDemoProvider() Provider {
	return &demoProvider{
		org: Organization{ID: DemoOrgID, Name: demoOrgName},
		users: []User{
			{ID: DemoUserID, Name: demoUserName, Role: demoDefaultRole, OrgID: DemoOrgID},
			{ID: DemoAdminID, Name: demoAdminName, Role: RoleAdmin, OrgID: DemoOrgID},
		},
	}
}

func (p *demoProvider) Lookup(userID string) (User, bool) {
	for _, u := range p.users {
		if u.ID == userID {
			return u, true
		}
	}
	return User{}, false
}

func (p *demoProvider) Organization() Organization {
	return p.org
}

func (p *demoProvider) Users() []User {
	out := make([]User, len(p.users))
	copy(out, p.users)
	return out
}

// =============================================================================
// STATIC PROVIDER
// =============================================================================

// staticProvider serves a single configured identity.
type staticProvider struct {
	user User
	org  Organization
}

// NewStaticProvider returns a provider for one configured user. Used when
// the config file pins explicit ids instead of the demo directory.
func NewStaticProvider(user User, org Organization) (Provider, error) {
	if user.ID == "" {
		return nil, fmt.Errorf("identity: user id is required")
	}
	if org.ID == "" {
		return nil, fmt.Errorf("identity: organization id is required")
	}
	user.OrgID = org.ID
	return &staticProvider{user: user, org: org}, nil
}

func (p *staticProvider) Lookup(userID string) (User, bool) {
	if userID == p.user.ID {
		return p.user, true
	}
	return User{}, false
}

func (p *staticProvider) Organization() Organization {
	return p.org
}

func (p *staticProvider) Users() []User {
	return []User{p.user}
}
