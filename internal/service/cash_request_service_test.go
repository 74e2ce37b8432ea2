package service

import (
	"testing"

	"procurement/internal/model"
	"procurement/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedVendor(t *testing.T, f *fixture, name string) *model.Vendor {
	t.Helper()
	vendor := &model.Vendor{
		Name:          name,
		BankName:      "First National",
		AccountNumber: "111-222-333",
		CreatedBy:     uuid.New(),
	}
	require.NoError(t, f.db.Create(vendor).Error)
	return vendor
}

func crPayload(programID string) CreateCashRequestDTO {
	return CreateCashRequestDTO{
		ProgramID:     programID,
		ActivityName:  "Venue deposit",
		VendorName:    "Summit Hall",
		BankName:      "Coastal Bank",
		AccountNumber: "900-100",
		Items: []CRItemPayload{
			{Description: "Hall rental", Quantity: 1, Price: decimal.NewFromInt(1500)},
			{Description: "Chairs", Quantity: 50, Price: decimal.NewFromInt(10)},
		},
	}
}

func TestCashRequestService_CreateWithTax(t *testing.T) {
	f := newFixture(t)
	program := seedProgram(t, f.db, "Atlas Initiative", "ATLAS")
	creator := seedUser(t, f.db, model.RoleUser, *program)

	req := crPayload(program.ID.String())
	req.UseTax = true
	req.TaxPercentage = decimal.NewFromInt(10)

	cr, err := f.crs.Create(f.ctx(), actorFor(creator), req)
	require.NoError(t, err)

	// Subtotal 2000, 10% deducted.
	assert.True(t, cr.TaxAmount.Equal(decimal.NewFromInt(200)), "tax = %s", cr.TaxAmount)
	assert.True(t, cr.TotalAmount.Equal(decimal.NewFromInt(1800)), "total = %s", cr.TotalAmount)
	assert.Equal(t, model.StatusPending, cr.Status)
	require.Len(t, cr.Items, 2)
	assert.True(t, cr.Items[1].Total.Equal(decimal.NewFromInt(500)))
}

func TestCashRequestService_CreateWithoutTax(t *testing.T) {
	f := newFixture(t)
	program := seedProgram(t, f.db, "Atlas Initiative", "ATLAS")
	creator := seedUser(t, f.db, model.RoleUser, *program)

	cr, err := f.crs.Create(f.ctx(), actorFor(creator), crPayload(program.ID.String()))
	require.NoError(t, err)

	assert.True(t, cr.TaxAmount.IsZero())
	assert.True(t, cr.TotalAmount.Equal(decimal.NewFromInt(2000)))
}

func TestCashRequestService_CreateRoleGates(t *testing.T) {
	f := newFixture(t)
	program := seedProgram(t, f.db, "Atlas Initiative", "ATLAS")
	admin := seedUser(t, f.db, model.RoleAdmin)
	finance := seedUser(t, f.db, model.RoleFinance, *program)

	_, err := f.crs.Create(f.ctx(), actorFor(admin), crPayload(program.ID.String()))
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	// Finance can raise cash requests, unlike purchase requests.
	cr, err := f.crs.Create(f.ctx(), actorFor(finance), crPayload(program.ID.String()))
	require.NoError(t, err)
	assert.Equal(t, finance.ID, cr.CreatedBy)
}

func TestCashRequestService_VendorResolution(t *testing.T) {
	f := newFixture(t)
	program := seedProgram(t, f.db, "Atlas Initiative", "ATLAS")
	creator := seedUser(t, f.db, model.RoleUser, *program)

	t.Run("by id", func(t *testing.T) {
		vendor := seedVendor(t, f, "Registered Supplies Co")
		req := crPayload(program.ID.String())
		req.VendorID = vendor.ID.String()
		req.VendorName, req.BankName, req.AccountNumber = "", "", ""

		cr, err := f.crs.Create(f.ctx(), actorFor(creator), req)
		require.NoError(t, err)
		assert.Equal(t, vendor.ID, *cr.VendorID)
		assert.Equal(t, "First National", cr.BankName)
	})

	t.Run("unknown id", func(t *testing.T) {
		req := crPayload(program.ID.String())
		req.VendorID = uuid.NewString()
		_, err := f.crs.Create(f.ctx(), actorFor(creator), req)
		assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
	})

	t.Run("case-insensitive name match keeps official bank details", func(t *testing.T) {
		vendor := seedVendor(t, f, "Acme Catering")
		req := crPayload(program.ID.String())
		req.VendorName = "ACME CATERING"
		req.BankName = "Some Other Bank"
		req.AccountNumber = "000-000"

		cr, err := f.crs.Create(f.ctx(), actorFor(creator), req)
		require.NoError(t, err)
		assert.Equal(t, vendor.ID, *cr.VendorID)
		assert.Equal(t, "First National", cr.BankName)
		assert.Equal(t, "111-222-333", cr.AccountNumber)
	})

	t.Run("auto-create from manual details", func(t *testing.T) {
		req := crPayload(program.ID.String())
		req.VendorName = "Brand New Vendor"

		cr, err := f.crs.Create(f.ctx(), actorFor(creator), req)
		require.NoError(t, err)
		assert.Equal(t, "Brand New Vendor", cr.VendorName)
		assert.Equal(t, "Coastal Bank", cr.BankName)

		var saved model.Vendor
		require.NoError(t, f.db.First(&saved, "name = ?", "Brand New Vendor").Error)
		assert.Equal(t, creator.ID, saved.CreatedBy)
	})

	t.Run("incomplete manual details", func(t *testing.T) {
		req := crPayload(program.ID.String())
		req.BankName = ""
		_, err := f.crs.Create(f.ctx(), actorFor(creator), req)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})
}

func TestCashRequestService_NegativeTaxPercentage(t *testing.T) {
	f := newFixture(t)
	program := seedProgram(t, f.db, "Atlas Initiative", "ATLAS")
	creator := seedUser(t, f.db, model.RoleUser, *program)

	req := crPayload(program.ID.String())
	req.UseTax = true
	req.TaxPercentage = decimal.NewFromInt(-5)

	_, err := f.crs.Create(f.ctx(), actorFor(creator), req)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestCashRequestService_Review(t *testing.T) {
	f := newFixture(t)
	program := seedProgram(t, f.db, "Atlas Initiative", "ATLAS")
	creator := seedUser(t, f.db, model.RoleUser, *program)
	finance := seedUser(t, f.db, model.RoleFinance, *program)

	cr, err := f.crs.Create(f.ctx(), actorFor(creator), crPayload(program.ID.String()))
	require.NoError(t, err)

	_, err = f.crs.Review(f.ctx(), actorFor(creator), cr.ID.String(), ReviewRequestDTO{Status: model.StatusApproved})
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	rejected, err := f.crs.Review(f.ctx(), actorFor(finance), cr.ID.String(), ReviewRequestDTO{Status: model.StatusRejected})
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, rejected.Status)
	assert.Equal(t, "No reason provided", rejected.RejectionReason)

	// Rejected is terminal.
	_, err = f.crs.Review(f.ctx(), actorFor(finance), cr.ID.String(), ReviewRequestDTO{Status: model.StatusApproved})
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidState))
}

func TestCashRequestService_EditRules(t *testing.T) {
	f := newFixture(t)
	program := seedProgram(t, f.db, "Atlas Initiative", "ATLAS")
	creator := seedUser(t, f.db, model.RoleUser, *program)
	other := seedUser(t, f.db, model.RoleUser, *program)
	finance := seedUser(t, f.db, model.RoleFinance, *program)

	cr, err := f.crs.Create(f.ctx(), actorFor(creator), crPayload(program.ID.String()))
	require.NoError(t, err)

	amount := decimal.NewFromInt(750)
	desc := "adjusted after quote"

	_, err = f.crs.Edit(f.ctx(), actorFor(other), cr.ID.String(), UpdateCashRequestDTO{Amount: &amount})
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	updated, err := f.crs.Edit(f.ctx(), actorFor(creator), cr.ID.String(), UpdateCashRequestDTO{Amount: &amount, Description: &desc})
	require.NoError(t, err)
	require.NotNil(t, updated.Amount)
	assert.True(t, updated.Amount.Equal(amount))
	assert.Equal(t, desc, updated.Description)

	_, err = f.crs.Review(f.ctx(), actorFor(finance), cr.ID.String(), ReviewRequestDTO{Status: model.StatusApproved})
	require.NoError(t, err)
	_, err = f.crs.Edit(f.ctx(), actorFor(creator), cr.ID.String(), UpdateCashRequestDTO{Description: &desc})
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidState))
}

func TestCashRequestService_DeleteRules(t *testing.T) {
	f := newFixture(t)
	program := seedProgram(t, f.db, "Atlas Initiative", "ATLAS")
	creator := seedUser(t, f.db, model.RoleUser, *program)
	other := seedUser(t, f.db, model.RoleUser, *program)

	cr, err := f.crs.Create(f.ctx(), actorFor(creator), crPayload(program.ID.String()))
	require.NoError(t, err)

	err = f.crs.Delete(f.ctx(), actorFor(other), cr.ID.String())
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	require.NoError(t, f.crs.Delete(f.ctx(), actorFor(creator), cr.ID.String()))

	_, err = f.crs.Get(f.ctx(), actorFor(creator), cr.ID.String())
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestCashRequestService_ListScoping(t *testing.T) {
	f := newFixture(t)
	atlas := seedProgram(t, f.db, "Atlas Initiative", "ATLAS")
	horizon := seedProgram(t, f.db, "Horizon", "HRZN")

	alice := seedUser(t, f.db, model.RoleUser, *atlas, *horizon)
	bob := seedUser(t, f.db, model.RoleUser, *atlas)
	finance := seedUser(t, f.db, model.RoleFinance, *atlas)
	admin := seedUser(t, f.db, model.RoleAdmin)

	_, err := f.crs.Create(f.ctx(), actorFor(alice), crPayload(atlas.ID.String()))
	require.NoError(t, err)
	_, err = f.crs.Create(f.ctx(), actorFor(alice), crPayload(horizon.ID.String()))
	require.NoError(t, err)
	_, err = f.crs.Create(f.ctx(), actorFor(bob), crPayload(atlas.ID.String()))
	require.NoError(t, err)

	all, err := f.crs.List(f.ctx(), actorFor(admin))
	require.NoError(t, err)
	assert.Len(t, all, 3)

	finList, err := f.crs.List(f.ctx(), actorFor(finance))
	require.NoError(t, err)
	assert.Len(t, finList, 2)

	aliceList, err := f.crs.List(f.ctx(), actorFor(alice))
	require.NoError(t, err)
	assert.Len(t, aliceList, 2)

	// Own cash requests stay visible even after program access is revoked.
	require.NoError(t, f.userRepo.ReplaceProgramAccess(f.ctx(), bob, nil))
	bobList, err := f.crs.List(f.ctx(), actorFor(bob))
	require.NoError(t, err)
	assert.Len(t, bobList, 1)

	// Finance with no program access sees nothing.
	require.NoError(t, f.userRepo.ReplaceProgramAccess(f.ctx(), finance, nil))
	finList, err = f.crs.List(f.ctx(), actorFor(finance))
	require.NoError(t, err)
	assert.Empty(t, finList)
}
