// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package identity

import (
	"testing"
)

func TestDemoProvider(t *testing.T) {
	p := NewDemoProvider()

	user, ok := p.Lookup(DemoUserID)
	if !ok {
		t.Fatal("demo user not found")
	}
	if user.IsAdmin() {
		t.Error("sample user should not be admin")
	}

	admin, ok := p.Lookup(DemoAdminID)
	if !ok {
		t.Fatal("demo admin not found")
	}
	if !admin.IsAdmin() {
		t.Error("sample admin should be admin")
	}

	if _, ok := p.Lookup("user_nobody"); ok {
		t.Error("unknown id should not resolve")
	}

	org := p.Organization()
	if org.ID != DemoOrgID {
		t.Errorf("org = %+v", org)
	}
	if len(p.Users()) != 2 {
		t.Errorf("Users() has %d entries, want 2", len(p.Users()))
	}
}

func TestStaticProvider(t *testing.T) {
	p, err := NewStaticProvider(
		User{ID: "u9", Name: "Pat", Role: "user"},
		Organization{ID: "o9", Name: "Acme"},
	)
	if err != nil {
		t.Fatalf("NewStaticProvider: %v", err)
	}

	user, ok := p.Lookup("u9")
	if !ok || user.OrgID != "o9" {
		t.Errorf("Lookup = %+v, %v", user, ok)
	}
	if _, ok := p.Lookup("u1"); ok {
		t.Error("static provider should only resolve its own user")
	}
}

func TestStaticProvider_Validation(t *testing.T) {
	if _, err := NewStaticProvider(User{}, Organization{ID: "o1"}); err == nil {
		t.Error("missing user id should be rejected")
	}
	if _, err := NewStaticProvider(User{ID: "u1"}, Organization{}); err == nil {
		t.Error("missing org id should be rejected")
	}
}
