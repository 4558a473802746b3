package contract

import (
	"testing"

	"coopstock/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeCoopAdmin(t *testing.T) {
	t.Run("first grant bootstraps without an existing admin", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.contract.MakeCoopAdmin(f.ctx(adminAccount), adminAccount))

		isAdmin, err := NewMemberManager(f.ctx(adminAccount)).IsAdmin(adminAccount)
		require.NoError(t, err)
		assert.True(t, isAdmin)
	})

	t.Run("subsequent grants require an admin caller", func(t *testing.T) {
		f := newFixture(t)
		f.bootstrapAdmin()

		err := f.contract.MakeCoopAdmin(f.ctx("intruder"), "intruder")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not authorized")

		require.NoError(t, f.contract.MakeCoopAdmin(f.ctx(adminAccount), "second-admin"))
	})
}

func TestRegisterMember(t *testing.T) {
	t.Run("admits a funded member and takes the deposit", func(t *testing.T) {
		f := newFixture(t)
		f.bootstrapAdmin()
		f.fund("farmer-1", 100)

		err := f.contract.RegisterMember(f.ctx(adminAccount), "farmer-1", "M-1000",
			`[{"infoName":"village","infoValue":"north"}]`, 25)
		require.NoError(t, err)

		profile, err := f.contract.GetMemberProfile(f.ctx(adminAccount), "farmer-1")
		require.NoError(t, err)
		assert.Equal(t, "M-1000", profile.MembershipID)
		assert.Equal(t, uint64(25), profile.Deposit)
		assert.Equal(t, uint32(0), profile.Karma)
		require.Len(t, profile.ProfileInfo, 1)
		assert.Equal(t, "village", profile.ProfileInfo[0].Name)

		assert.Equal(t, uint64(75), f.balance("farmer-1"))
		assert.Equal(t, uint64(25), f.balance(treasuryAccountID(coopSocietyIndex)))
		assert.Contains(t, f.stub.events, "MemberProfileRegistered")
	})

	t.Run("requires the create-role capability", func(t *testing.T) {
		f := newFixture(t)
		f.bootstrapAdmin()
		f.fund("farmer-1", 100)

		err := f.contract.RegisterMember(f.ctx("farmer-1"), "farmer-1", "M-1000", "", 10)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "create-role capability")
	})

	t.Run("rejects a duplicate membership id", func(t *testing.T) {
		f := newFixture(t)
		f.bootstrapAdmin()
		f.fund("farmer-1", 100)
		f.fund("farmer-2", 100)
		require.NoError(t, f.contract.RegisterMember(f.ctx(adminAccount), "farmer-1", "M-1000", "", 10))

		err := f.contract.RegisterMember(f.ctx(adminAccount), "farmer-2", "M-1000", "", 10)
		assert.ErrorIs(t, err, ErrMemberIDExists)
	})

	t.Run("rejects a duplicate account", func(t *testing.T) {
		f := newFixture(t)
		f.bootstrapAdmin()
		f.fund("farmer-1", 100)
		require.NoError(t, f.contract.RegisterMember(f.ctx(adminAccount), "farmer-1", "M-1000", "", 10))

		err := f.contract.RegisterMember(f.ctx(adminAccount), "farmer-1", "M-2000", "", 10)
		assert.ErrorIs(t, err, ErrMemberAccountExists)
	})

	t.Run("rejects a deposit below the minimum", func(t *testing.T) {
		f := newFixture(t)
		f.bootstrapAdmin()
		f.fund("farmer-1", 100)

		err := f.contract.RegisterMember(f.ctx(adminAccount), "farmer-1", "M-1000", "", 0)
		assert.ErrorIs(t, err, ErrDepositValueInvalid)
	})

	t.Run("rejects an unfunded account", func(t *testing.T) {
		f := newFixture(t)
		f.bootstrapAdmin()

		err := f.contract.RegisterMember(f.ctx(adminAccount), "farmer-1", "M-1000", "", 10)
		assert.ErrorIs(t, err, ErrAccountBalanceLow)
	})

	t.Run("aborts when the deposit transfer fails, leaving no profile", func(t *testing.T) {
		f := newFixture(t)
		f.bootstrapAdmin()
		f.fund("farmer-1", 5)

		err := f.contract.RegisterMember(f.ctx(adminAccount), "farmer-1", "M-1000", "", 10)
		assert.ErrorIs(t, err, ErrTransferFailed)

		_, err = f.contract.GetMemberProfile(f.ctx(adminAccount), "farmer-1")
		assert.ErrorIs(t, err, ErrUnknownMemberAccount)
		assert.Equal(t, uint64(5), f.balance("farmer-1"))
	})
}

func TestUpdateMemberProfileInfo(t *testing.T) {
	t.Run("replaces the stored info wholesale", func(t *testing.T) {
		f := newFixture(t)
		f.bootstrapAdmin()
		f.fund("farmer-1", 100)
		require.NoError(t, f.contract.RegisterMember(f.ctx(adminAccount), "farmer-1", "M-1000",
			`[{"infoName":"village","infoValue":"north"},{"infoName":"phone","infoValue":"123"}]`, 10))

		require.NoError(t, f.contract.UpdateMemberProfileInfo(f.ctx(adminAccount), "farmer-1",
			`[{"infoName":"village","infoValue":"south"}]`))

		profile, err := f.contract.GetMemberProfile(f.ctx(adminAccount), "farmer-1")
		require.NoError(t, err)
		require.Len(t, profile.ProfileInfo, 1)
		assert.Equal(t, "south", profile.ProfileInfo[0].Value)
	})

	t.Run("rejects an absent info list", func(t *testing.T) {
		f := newFixture(t)
		f.bootstrapAdmin()
		f.fund("farmer-1", 100)
		require.NoError(t, f.contract.RegisterMember(f.ctx(adminAccount), "farmer-1", "M-1000", "", 10))

		err := f.contract.UpdateMemberProfileInfo(f.ctx(adminAccount), "farmer-1", "")
		assert.ErrorIs(t, err, ErrProfileInfoEmpty)
	})

	t.Run("rejects an unknown member", func(t *testing.T) {
		f := newFixture(t)
		f.bootstrapAdmin()

		err := f.contract.UpdateMemberProfileInfo(f.ctx(adminAccount), "ghost", `[]`)
		assert.ErrorIs(t, err, ErrUnknownMemberAccount)
	})
}

func TestUpdateMemberRole(t *testing.T) {
	t.Run("a non-empty role set activates the member", func(t *testing.T) {
		f := newFixture(t)
		f.bootstrapAdmin()
		f.admitMember("farmer-1", "M-1000", model.RoleAssetOwner, model.RoleAssetKeeper)

		profile, err := f.contract.GetMemberProfile(f.ctx(adminAccount), "farmer-1")
		require.NoError(t, err)
		assert.Equal(t, model.MemberStatusActive, profile.Status)
		assert.True(t, profile.HasRole(model.RoleAssetOwner))
		assert.True(t, profile.HasRole(model.RoleAssetKeeper))
		assert.False(t, profile.HasRole(model.RoleInsurer))
	})

	t.Run("an empty role set suspends the member", func(t *testing.T) {
		f := newFixture(t)
		f.bootstrapAdmin()
		f.admitMember("farmer-1", "M-1000", model.RoleAssetOwner)

		require.NoError(t, f.contract.UpdateMemberRole(f.ctx(adminAccount), "farmer-1", ""))

		profile, err := f.contract.GetMemberProfile(f.ctx(adminAccount), "farmer-1")
		require.NoError(t, err)
		assert.Equal(t, model.MemberStatusSuspended, profile.Status)
		assert.Empty(t, profile.Roles)
	})

	t.Run("rejects a role outside the closed set", func(t *testing.T) {
		f := newFixture(t)
		f.bootstrapAdmin()
		f.admitMember("farmer-1", "M-1000")

		err := f.contract.UpdateMemberRole(f.ctx(adminAccount), "farmer-1", `["superUser"]`)
		assert.ErrorIs(t, err, ErrMemberRoleInvalid)
	})
}

func TestRequireRole(t *testing.T) {
	f := newFixture(t)
	f.bootstrapAdmin()
	f.admitMember("farmer-1", "M-1000", model.RoleAssetOwner)
	f.admitMember("idle-1", "M-2000")

	mm := NewMemberManager(f.ctx(adminAccount))
	assert.NoError(t, mm.RequireRole("farmer-1", model.RoleAssetOwner))
	assert.ErrorIs(t, mm.RequireRole("farmer-1", model.RoleInsurer), ErrMemberRoleInvalid)
	assert.ErrorIs(t, mm.RequireRole("idle-1", model.RoleAssetOwner), ErrMemberRoleInvalid)
	assert.ErrorIs(t, mm.RequireRole("ghost", model.RoleAssetOwner), ErrUnknownMemberAccount)
}

func TestGetMemberProfileAccess(t *testing.T) {
	f := newFixture(t)
	f.bootstrapAdmin()
	f.admitMember("farmer-1", "M-1000")
	f.admitMember("farmer-2", "M-2000")

	_, err := f.contract.GetMemberProfile(f.ctx("farmer-1"), "farmer-1")
	assert.NoError(t, err)

	_, err = f.contract.GetMemberProfile(f.ctx(adminAccount), "farmer-1")
	assert.NoError(t, err)

	_, err = f.contract.GetMemberProfile(f.ctx("farmer-2"), "farmer-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "own profile")
}
