package service

import (
	"fmt"
	"testing"
	"time"

	"procurement/internal/model"
	"procurement/pkg/apperror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func prPayload(programID string) CreatePurchaseRequestDTO {
	return CreatePurchaseRequestDTO{
		ProgramID:    programID,
		ActivityName: "Field training",
		Department:   "Operations",
		Budgeted:     boolPtr(true),
		CostingTo:    "Program budget",
		Items: []PRItemPayload{
			{Item: "Notebooks", Quantity: 10, Unit: "pcs", Price: decimal.NewFromInt(3)},
			{Item: "Projector", Quantity: 1, Unit: "unit", Price: decimal.NewFromInt(250)},
		},
	}
}

func TestPurchaseRequestService_Create(t *testing.T) {
	f := newFixture(t)
	program := seedProgram(t, f.db, "Atlas Initiative", "ATLAS")
	creator := seedUser(t, f.db, model.RoleUser, *program)

	pr, err := f.prs.Create(f.ctx(), actorFor(creator), prPayload(program.ID.String()))
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("ATLAS-%d-0001", time.Now().Year()), pr.PRNumber)
	assert.Equal(t, model.StatusPending, pr.Status)
	assert.Equal(t, creator.ID, pr.CreatedBy)
	assert.Equal(t, "Atlas Initiative", pr.ProgramName)
	require.Len(t, pr.Items, 2)
	assert.True(t, pr.Items[0].TotalPrice.Equal(decimal.NewFromInt(30)))
	assert.True(t, pr.Items[1].TotalPrice.Equal(decimal.NewFromInt(250)))

	// Creation is audited.
	var count int64
	f.db.Model(&model.AuditLog{}).Where("action = ?", model.ActionCreatePurchaseRequest).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestPurchaseRequestService_CreateRoleGates(t *testing.T) {
	f := newFixture(t)
	program := seedProgram(t, f.db, "Atlas Initiative", "ATLAS")
	admin := seedUser(t, f.db, model.RoleAdmin)
	finance := seedUser(t, f.db, model.RoleFinance, *program)

	// Admins hold no document rights at all.
	_, err := f.prs.Create(f.ctx(), actorFor(admin), prPayload(program.ID.String()))
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	// Finance raises cash requests, never purchase requests.
	_, err = f.prs.Create(f.ctx(), actorFor(finance), prPayload(program.ID.String()))
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))
}

func TestPurchaseRequestService_CreateWithoutProgramAccess(t *testing.T) {
	f := newFixture(t)
	program := seedProgram(t, f.db, "Atlas Initiative", "ATLAS")
	outsider := seedUser(t, f.db, model.RoleUser) // no program access

	_, err := f.prs.Create(f.ctx(), actorFor(outsider), prPayload(program.ID.String()))
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	// No counter value may leak on a rejected create.
	var reloaded model.Program
	require.NoError(t, f.db.First(&reloaded, "id = ?", program.ID).Error)
	assert.Equal(t, 0, reloaded.PRCounter)
}

func TestPurchaseRequestService_CreateInactiveProgram(t *testing.T) {
	f := newFixture(t)
	program := seedProgram(t, f.db, "Retired", "RETD")
	creator := seedUser(t, f.db, model.RoleUser, *program)
	require.NoError(t, f.db.Model(program).Update("is_active", false).Error)

	_, err := f.prs.Create(f.ctx(), actorFor(creator), prPayload(program.ID.String()))
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestPurchaseRequestService_CreateItemValidation(t *testing.T) {
	f := newFixture(t)
	program := seedProgram(t, f.db, "Atlas Initiative", "ATLAS")
	creator := seedUser(t, f.db, model.RoleUser, *program)

	tests := []struct {
		name  string
		items []PRItemPayload
	}{
		{name: "no items", items: nil},
		{name: "blank item name", items: []PRItemPayload{{Item: "  ", Quantity: 1, Unit: "pcs", Price: decimal.NewFromInt(1)}}},
		{name: "zero quantity", items: []PRItemPayload{{Item: "Pens", Quantity: 0, Unit: "pcs", Price: decimal.NewFromInt(1)}}},
		{name: "negative price", items: []PRItemPayload{{Item: "Pens", Quantity: 1, Unit: "pcs", Price: decimal.NewFromInt(-1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := prPayload(program.ID.String())
			req.Items = tt.items
			_, err := f.prs.Create(f.ctx(), actorFor(creator), req)
			assert.True(t, apperror.IsKind(err, apperror.KindValidation))
		})
	}
}

func TestPurchaseRequestService_Review(t *testing.T) {
	f := newFixture(t)
	program := seedProgram(t, f.db, "Atlas Initiative", "ATLAS")
	creator := seedUser(t, f.db, model.RoleUser, *program)
	finance := seedUser(t, f.db, model.RoleFinance, *program)

	pr, err := f.prs.Create(f.ctx(), actorFor(creator), prPayload(program.ID.String()))
	require.NoError(t, err)

	// Creators cannot review, not even their own.
	_, err = f.prs.Review(f.ctx(), actorFor(creator), pr.ID.String(), ReviewRequestDTO{Status: model.StatusApproved})
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	approved, err := f.prs.Review(f.ctx(), actorFor(finance), pr.ID.String(), ReviewRequestDTO{Status: model.StatusApproved})
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, approved.Status)
	assert.Equal(t, finance.ID, *approved.ApprovedBy)
	assert.NotNil(t, approved.ApprovedAt)

	// Approved is terminal: a second review is an invalid transition.
	_, err = f.prs.Review(f.ctx(), actorFor(finance), pr.ID.String(), ReviewRequestDTO{Status: model.StatusRejected})
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidState))
}

func TestPurchaseRequestService_RejectDefaultsReason(t *testing.T) {
	f := newFixture(t)
	program := seedProgram(t, f.db, "Atlas Initiative", "ATLAS")
	creator := seedUser(t, f.db, model.RoleUser, *program)
	finance := seedUser(t, f.db, model.RoleFinance, *program)

	pr, err := f.prs.Create(f.ctx(), actorFor(creator), prPayload(program.ID.String()))
	require.NoError(t, err)

	rejected, err := f.prs.Review(f.ctx(), actorFor(finance), pr.ID.String(), ReviewRequestDTO{Status: model.StatusRejected})
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, rejected.Status)
	assert.Equal(t, "No reason provided", rejected.RejectionReason)
}

func TestPurchaseRequestService_EditRules(t *testing.T) {
	f := newFixture(t)
	program := seedProgram(t, f.db, "Atlas Initiative", "ATLAS")
	creator := seedUser(t, f.db, model.RoleUser, *program)
	other := seedUser(t, f.db, model.RoleUser, *program)
	finance := seedUser(t, f.db, model.RoleFinance, *program)

	pr, err := f.prs.Create(f.ctx(), actorFor(creator), prPayload(program.ID.String()))
	require.NoError(t, err)

	dept := "Logistics"

	// Only the creator may edit.
	_, err = f.prs.Edit(f.ctx(), actorFor(other), pr.ID.String(), UpdatePurchaseRequestDTO{Department: &dept})
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	updated, err := f.prs.Edit(f.ctx(), actorFor(creator), pr.ID.String(), UpdatePurchaseRequestDTO{Department: &dept})
	require.NoError(t, err)
	assert.Equal(t, "Logistics", updated.Department)

	// Once approved the document is frozen.
	_, err = f.prs.Review(f.ctx(), actorFor(finance), pr.ID.String(), ReviewRequestDTO{Status: model.StatusApproved})
	require.NoError(t, err)
	_, err = f.prs.Edit(f.ctx(), actorFor(creator), pr.ID.String(), UpdatePurchaseRequestDTO{Department: &dept})
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidState))
}

func TestPurchaseRequestService_EditReplacesItems(t *testing.T) {
	f := newFixture(t)
	program := seedProgram(t, f.db, "Atlas Initiative", "ATLAS")
	creator := seedUser(t, f.db, model.RoleUser, *program)

	pr, err := f.prs.Create(f.ctx(), actorFor(creator), prPayload(program.ID.String()))
	require.NoError(t, err)

	newItems := []PRItemPayload{{Item: "Whiteboard", Quantity: 2, Unit: "pcs", Price: decimal.NewFromInt(40)}}
	updated, err := f.prs.Edit(f.ctx(), actorFor(creator), pr.ID.String(), UpdatePurchaseRequestDTO{Items: &newItems})
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, "Whiteboard", updated.Items[0].Item)
	assert.True(t, updated.Items[0].TotalPrice.Equal(decimal.NewFromInt(80)))

	// The old item rows are gone, not orphaned.
	var count int64
	f.db.Model(&model.PRItem{}).Where("purchase_request_id = ?", pr.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestPurchaseRequestService_Comments(t *testing.T) {
	f := newFixture(t)
	program := seedProgram(t, f.db, "Atlas Initiative", "ATLAS")
	creator := seedUser(t, f.db, model.RoleUser, *program)
	finance := seedUser(t, f.db, model.RoleFinance, *program)
	admin := seedUser(t, f.db, model.RoleAdmin)

	pr, err := f.prs.Create(f.ctx(), actorFor(creator), prPayload(program.ID.String()))
	require.NoError(t, err)

	// Admins cannot comment on documents.
	_, err = f.prs.AddComment(f.ctx(), actorFor(admin), pr.ID.String(), "looks fine")
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	// Blank comments are rejected.
	_, err = f.prs.AddComment(f.ctx(), actorFor(creator), pr.ID.String(), "   ")
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	withComment, err := f.prs.AddComment(f.ctx(), actorFor(finance), pr.ID.String(), "please split the projector line")
	require.NoError(t, err)
	require.Len(t, withComment.Comments, 1)
	assert.Equal(t, "please split the projector line", withComment.Comments[0].Comment)
	assert.Equal(t, "finance", withComment.Comments[0].CommentedByRole)
	assert.True(t, withComment.RevisionRequested)

	// The creator may respond on their own request.
	withReply, err := f.prs.AddComment(f.ctx(), actorFor(creator), pr.ID.String(), "done, see revision")
	require.NoError(t, err)
	assert.Len(t, withReply.Comments, 2)
}

func TestPurchaseRequestService_DeleteRules(t *testing.T) {
	f := newFixture(t)
	program := seedProgram(t, f.db, "Atlas Initiative", "ATLAS")
	creator := seedUser(t, f.db, model.RoleUser, *program)
	other := seedUser(t, f.db, model.RoleUser, *program)

	pr, err := f.prs.Create(f.ctx(), actorFor(creator), prPayload(program.ID.String()))
	require.NoError(t, err)

	err = f.prs.Delete(f.ctx(), actorFor(other), pr.ID.String())
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	require.NoError(t, f.prs.Delete(f.ctx(), actorFor(creator), pr.ID.String()))

	_, err = f.prs.Get(f.ctx(), actorFor(creator), pr.ID.String())
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestPurchaseRequestService_ListScoping(t *testing.T) {
	f := newFixture(t)
	atlas := seedProgram(t, f.db, "Atlas Initiative", "ATLAS")
	horizon := seedProgram(t, f.db, "Horizon", "HRZN")

	alice := seedUser(t, f.db, model.RoleUser, *atlas, *horizon)
	bob := seedUser(t, f.db, model.RoleUser, *atlas)
	finance := seedUser(t, f.db, model.RoleFinance, *atlas)
	admin := seedUser(t, f.db, model.RoleAdmin)

	_, err := f.prs.Create(f.ctx(), actorFor(alice), prPayload(atlas.ID.String()))
	require.NoError(t, err)
	_, err = f.prs.Create(f.ctx(), actorFor(alice), prPayload(horizon.ID.String()))
	require.NoError(t, err)
	_, err = f.prs.Create(f.ctx(), actorFor(bob), prPayload(atlas.ID.String()))
	require.NoError(t, err)

	// Admin sees everything.
	all, err := f.prs.List(f.ctx(), actorFor(admin))
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// Finance sees accessible programs, all creators.
	finList, err := f.prs.List(f.ctx(), actorFor(finance))
	require.NoError(t, err)
	assert.Len(t, finList, 2)

	// Users see only their own, within accessible programs.
	aliceList, err := f.prs.List(f.ctx(), actorFor(alice))
	require.NoError(t, err)
	assert.Len(t, aliceList, 2)

	bobList, err := f.prs.List(f.ctx(), actorFor(bob))
	require.NoError(t, err)
	assert.Len(t, bobList, 1)

	// Revoking program access hides the user's own purchase requests.
	require.NoError(t, f.userRepo.ReplaceProgramAccess(f.ctx(), bob, nil))
	bobList, err = f.prs.List(f.ctx(), actorFor(bob))
	require.NoError(t, err)
	assert.Empty(t, bobList)

	// A finance user with no program access sees nothing, not everything.
	require.NoError(t, f.userRepo.ReplaceProgramAccess(f.ctx(), finance, nil))
	finList, err = f.prs.List(f.ctx(), actorFor(finance))
	require.NoError(t, err)
	assert.Empty(t, finList)
}
