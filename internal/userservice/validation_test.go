package userservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sushihentaime/blogmate/internal/common"
)

func TestValidateUsername(t *testing.T) {
	testCases := []struct {
		name     string
		username string
		valid    bool
	}{
		{name: "valid username", username: "testuser1", valid: true},
		{name: "empty username", username: "", valid: false},
		{name: "too short", username: "ab", valid: false},
		{name: "uppercase rejected", username: "TestUser", valid: false},
		{name: "symbols rejected", username: "test_user", valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := common.NewValidator()
			validateUsername(v, tc.username)
			assert.Equal(t, tc.valid, v.Valid())
		})
	}
}

func TestValidateEmail(t *testing.T) {
	testCases := []struct {
		name  string
		email string
		valid bool
	}{
		{name: "valid email", email: "testuser@example.com", valid: true},
		{name: "empty email", email: "", valid: false},
		{name: "missing domain", email: "testuser@", valid: false},
		{name: "missing at sign", email: "testuser.example.com", valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := common.NewValidator()
			validateEmail(v, tc.email)
			assert.Equal(t, tc.valid, v.Valid())
		})
	}
}

func TestValidatePassword(t *testing.T) {
	testCases := []struct {
		name     string
		password string
		valid    bool
	}{
		{name: "valid password", password: "Passw0rd", valid: true},
		{name: "empty password", password: "", valid: false},
		{name: "too short", password: "Pa55", valid: false},
		{name: "no uppercase", password: "passw0rdpass", valid: false},
		{name: "no number", password: "Passwordpass", valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := common.NewValidator()
			validatePassword(v, tc.password)
			assert.Equal(t, tc.valid, v.Valid())
		})
	}
}

func TestValidateRole(t *testing.T) {
	testCases := []struct {
		name  string
		role  Role
		valid bool
	}{
		{name: "reader", role: RoleReader, valid: true},
		{name: "writer", role: RoleWriter, valid: true},
		{name: "admin", role: RoleAdmin, valid: true},
		{name: "empty role", role: Role(""), valid: false},
		{name: "free-form string", role: Role("superuser"), valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := common.NewValidator()
			validateRole(v, tc.role)
			assert.Equal(t, tc.valid, v.Valid())
		})
	}
}
