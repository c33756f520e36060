package models

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrganizationKey_NoOrganizationIsSentinel(t *testing.T) {
	assert.Equal(t, uuid.Nil, OrganizationKey(nil))
	assert.Nil(t, OrganizationFromKey(OrganizationKey(nil)))

	org := uuid.New()
	key := OrganizationKey(&org)
	assert.Equal(t, org, key)
	require.NotNil(t, OrganizationFromKey(key))
	assert.Equal(t, org, *OrganizationFromKey(key))
}

func TestOrgRole_Ordering(t *testing.T) {
	assert.Less(t, OrgRoleMember.Rank(), OrgRoleAdmin.Rank())
	assert.Less(t, OrgRoleAdmin.Rank(), OrgRoleOwner.Rank())
	assert.Equal(t, 0, OrgRoleNone.Rank())
	assert.Equal(t, 0, OrgRole("superuser").Rank())

	assert.False(t, OrgRoleNone.CanManage())
	assert.False(t, OrgRoleMember.CanManage())
	assert.True(t, OrgRoleAdmin.CanManage())
	assert.True(t, OrgRoleOwner.CanManage())
}

func TestParseOwnerType(t *testing.T) {
	tests := []struct {
		in      string
		want    OwnerType
		wantErr bool
	}{
		{"", OwnerIndividual, false},
		{"individual", OwnerIndividual, false},
		{"organization", OwnerOrganization, false},
		{"team", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOwnerType(tt.in)
		if tt.wantErr {
			assert.True(t, errors.Is(err, ErrInvalidOwnerType), tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestOwnerContext_OrganizationID(t *testing.T) {
	id := uuid.New()
	assert.Nil(t, IndividualOwner(id).OrganizationID())
	got := OrganizationOwner(id).OrganizationID()
	require.NotNil(t, got)
	assert.Equal(t, id, *got)
}

func TestPayoutStatus_CanReceivePayouts(t *testing.T) {
	assert.True(t, PayoutStatusVerified.CanReceivePayouts())
	assert.True(t, PayoutStatusPro.CanReceivePayouts())
	assert.False(t, PayoutStatusPending.CanReceivePayouts())
	assert.False(t, PayoutStatusMissing.CanReceivePayouts())
}

func TestNormalizePayload(t *testing.T) {
	for _, in := range []string{"", "  ", "null"} {
		got, err := NormalizePayload([]byte(in))
		require.NoError(t, err, in)
		assert.JSONEq(t, `{}`, string(got))
	}
	got, err := NormalizePayload([]byte(` {"a":1} `))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))

	for _, in := range []string{`[]`, `"x"`, `{oops`, `42`} {
		_, err := NormalizePayload([]byte(in))
		assert.ErrorIs(t, err, ErrInvalidPayload, in)
	}
}
