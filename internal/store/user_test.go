// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"testing"

	"github.com/google/uuid"

	"pressroom/internal/models"
)

func TestUserStoreCreate(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	email := "desk-" + uuid.NewString()[:8] + "@pressroom.test"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	user, err := s.Create(email, "first-draft-9", "Desk Editor", models.RoleEditor)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if user.ID == uuid.Nil {
		t.Error("no id assigned")
	}
	if user.Email != email || user.DisplayName != "Desk Editor" || user.Role != models.RoleEditor {
		t.Errorf("stored identity mismatch: %+v", user)
	}
	if user.TOTPEnabled || user.TOTPSecret != nil {
		t.Error("new accounts must start without 2FA")
	}
	if user.PasswordHash == "" || user.PasswordHash == "first-draft-9" {
		t.Errorf("password not hashed: %q", user.PasswordHash)
	}

	// The same address cannot be registered twice.
	if _, err := s.Create(email, "other", "Imposter", models.RoleEditor); err == nil {
		t.Error("duplicate email accepted")
	}
}

func TestUserStoreLookups(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	email := "lookup-" + uuid.NewString()[:8] + "@pressroom.test"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	// Both lookups answer nil, nil when nothing matches.
	if u, err := s.FindByEmail(email); err != nil || u != nil {
		t.Errorf("FindByEmail miss: got (%+v, %v), want (nil, nil)", u, err)
	}
	if u, err := s.FindByID(uuid.New()); err != nil || u != nil {
		t.Errorf("FindByID miss: got (%+v, %v), want (nil, nil)", u, err)
	}

	created, err := s.Create(email, "pass", "Lookup Target", models.RoleAdmin)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	byEmail, err := s.FindByEmail(email)
	if err != nil || byEmail == nil || byEmail.ID != created.ID {
		t.Errorf("FindByEmail: got (%+v, %v)", byEmail, err)
	}
	byID, err := s.FindByID(created.ID)
	if err != nil || byID == nil || byID.Email != email {
		t.Errorf("FindByID: got (%+v, %v)", byID, err)
	}
}

func TestUserStoreList(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	a := "list-a-" + uuid.NewString()[:8] + "@pressroom.test"
	b := "list-b-" + uuid.NewString()[:8] + "@pressroom.test"
	t.Cleanup(func() { cleanUsers(t, db, a, b) })

	s.Create(a, "pass", "Alpha", models.RoleEditor)
	s.Create(b, "pass", "Beta", models.RoleAdmin)

	users, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	found := 0
	for _, u := range users {
		if u.Email == a || u.Email == b {
			found++
		}
	}
	if found != 2 {
		t.Errorf("found %d of the 2 created users", found)
	}
}

func TestUserStoreCheckPassword(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	email := "pw-" + uuid.NewString()[:8] + "@pressroom.test"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	user, _ := s.Create(email, "press-to-publish", "PW Check", models.RoleEditor)

	if !s.CheckPassword(user, "press-to-publish") {
		t.Error("correct password rejected")
	}
	for _, wrong := range []string{"press-to-Publish", "press-to-publish ", ""} {
		if s.CheckPassword(user, wrong) {
			t.Errorf("wrong password %q accepted", wrong)
		}
	}
}

func TestUserStoreTOTPLifecycle(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	email := "totp-" + uuid.NewString()[:8] + "@pressroom.test"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	user, _ := s.Create(email, "pass", "TOTP User", models.RoleEditor)

	// Enrolment stores the secret first; the enabled flag only flips once
	// a code has been verified.
	if err := s.SetTOTPSecret(user.ID, "JBSWY3DPEHPK3PXP"); err != nil {
		t.Fatalf("SetTOTPSecret: %v", err)
	}
	user, _ = s.FindByID(user.ID)
	if user.TOTPSecret == nil || *user.TOTPSecret != "JBSWY3DPEHPK3PXP" {
		t.Errorf("secret after set: %v", user.TOTPSecret)
	}
	if user.TOTPEnabled {
		t.Error("enabled before verification")
	}

	if err := s.EnableTOTP(user.ID); err != nil {
		t.Fatalf("EnableTOTP: %v", err)
	}
	user, _ = s.FindByID(user.ID)
	if !user.TOTPEnabled {
		t.Error("not enabled after EnableTOTP")
	}

	// An admin reset wipes both the flag and the secret, forcing a full
	// re-enrolment at next login.
	if err := s.ResetTOTP(user.ID); err != nil {
		t.Fatalf("ResetTOTP: %v", err)
	}
	user, _ = s.FindByID(user.ID)
	if user.TOTPSecret != nil || user.TOTPEnabled {
		t.Errorf("reset left 2FA state behind: secret=%v enabled=%v", user.TOTPSecret, user.TOTPEnabled)
	}
}

func TestUserStoreDelete(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	email := "gone-" + uuid.NewString()[:8] + "@pressroom.test"
	user, _ := s.Create(email, "pass", "Leaving", models.RoleEditor)

	if err := s.Delete(user.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if found, _ := s.FindByID(user.ID); found != nil {
		t.Error("user still present after delete")
	}
}
