package service

import (
	"testing"

	"procurement/internal/model"
	"procurement/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVendorService_CreateAndConflict(t *testing.T) {
	f := newFixture(t)
	admin := seedUser(t, f.db, model.RoleAdmin)

	vendor, err := f.vendors.Create(f.ctx(), actorFor(admin), CreateVendorRequest{
		Name:          "Acme Catering",
		BankName:      "First National",
		AccountNumber: "111-222-333",
	})
	require.NoError(t, err)
	assert.Equal(t, admin.ID, vendor.CreatedBy)

	// Uniqueness is case-insensitive.
	_, err = f.vendors.Create(f.ctx(), actorFor(admin), CreateVendorRequest{
		Name:          "ACME catering",
		BankName:      "Coastal Bank",
		AccountNumber: "900-100",
	})
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
}

func TestVendorService_Update(t *testing.T) {
	f := newFixture(t)
	admin := seedUser(t, f.db, model.RoleAdmin)
	vendor := seedVendor(t, f, "Acme Catering")
	seedVendor(t, f, "Summit Hall")

	bank := "Coastal Bank"
	updated, err := f.vendors.Update(f.ctx(), actorFor(admin), vendor.ID.String(), UpdateVendorRequest{BankName: &bank})
	require.NoError(t, err)
	assert.Equal(t, "Coastal Bank", updated.BankName)
	assert.Equal(t, "Acme Catering", updated.Name)

	// Renaming over another vendor is rejected.
	taken := "summit hall"
	_, err = f.vendors.Update(f.ctx(), actorFor(admin), vendor.ID.String(), UpdateVendorRequest{Name: &taken})
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))

	// Re-casing the vendor's own name is not a conflict.
	rename := "ACME Catering"
	updated, err = f.vendors.Update(f.ctx(), actorFor(admin), vendor.ID.String(), UpdateVendorRequest{Name: &rename})
	require.NoError(t, err)
	assert.Equal(t, "ACME Catering", updated.Name)
}

func TestVendorService_Delete(t *testing.T) {
	f := newFixture(t)
	admin := seedUser(t, f.db, model.RoleAdmin)
	vendor := seedVendor(t, f, "Acme Catering")

	require.NoError(t, f.vendors.Delete(f.ctx(), actorFor(admin), vendor.ID.String()))

	_, err := f.vendors.Get(f.ctx(), vendor.ID.String())
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	list, err := f.vendors.List(f.ctx())
	require.NoError(t, err)
	assert.Empty(t, list)
}
