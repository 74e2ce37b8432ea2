package service

import (
	"testing"

	"procurement/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatisticsService_Scoping(t *testing.T) {
	f := newFixture(t)
	stats := NewStatisticsService(f.db, f.access)

	atlas := seedProgram(t, f.db, "Atlas Initiative", "ATLAS")
	horizon := seedProgram(t, f.db, "Horizon", "HRZN")

	alice := seedUser(t, f.db, model.RoleUser, *atlas, *horizon)
	bob := seedUser(t, f.db, model.RoleUser, *horizon)
	finance := seedUser(t, f.db, model.RoleFinance, *atlas, *horizon)
	admin := seedUser(t, f.db, model.RoleAdmin)

	// Two purchase requests. Alice's gets approved (total 280), Bob's stays pending.
	alicePR, err := f.prs.Create(f.ctx(), actorFor(alice), prPayload(atlas.ID.String()))
	require.NoError(t, err)
	_, err = f.prs.Create(f.ctx(), actorFor(bob), prPayload(horizon.ID.String()))
	require.NoError(t, err)
	_, err = f.prs.Review(f.ctx(), actorFor(finance), alicePR.ID.String(), ReviewRequestDTO{Status: model.StatusApproved})
	require.NoError(t, err)

	// One approved cash request worth 2000.
	cr, err := f.crs.Create(f.ctx(), actorFor(alice), crPayload(atlas.ID.String()))
	require.NoError(t, err)
	_, err = f.crs.Review(f.ctx(), actorFor(finance), cr.ID.String(), ReviewRequestDTO{Status: model.StatusRejected})
	require.NoError(t, err)
	cr2, err := f.crs.Create(f.ctx(), actorFor(bob), crPayload(horizon.ID.String()))
	require.NoError(t, err)
	_, err = f.crs.Review(f.ctx(), actorFor(finance), cr2.ID.String(), ReviewRequestDTO{Status: model.StatusApproved})
	require.NoError(t, err)

	t.Run("admin sees everything", func(t *testing.T) {
		resp, err := stats.GetStatistics(f.ctx(), actorFor(admin))
		require.NoError(t, err)
		assert.EqualValues(t, 1, resp.PurchaseRequests.Approved)
		assert.EqualValues(t, 1, resp.PurchaseRequests.Pending)
		assert.EqualValues(t, 1, resp.CashRequests.Approved)
		assert.EqualValues(t, 1, resp.CashRequests.Rejected)
		assert.InDelta(t, 280, resp.ApprovedPRValue, 0.001)
		assert.InDelta(t, 2000, resp.ApprovedCRValue, 0.001)
		require.Len(t, resp.TopPrograms, 1)
		assert.Equal(t, "ATLAS", resp.TopPrograms[0].ProgramCode)
		assert.InDelta(t, 280, resp.TopPrograms[0].TotalValue, 0.001)
	})

	t.Run("user sees own documents only", func(t *testing.T) {
		resp, err := stats.GetStatistics(f.ctx(), actorFor(bob))
		require.NoError(t, err)
		assert.EqualValues(t, 1, resp.PurchaseRequests.Pending)
		assert.EqualValues(t, 0, resp.PurchaseRequests.Approved)
		assert.InDelta(t, 0, resp.ApprovedPRValue, 0.001)
		assert.InDelta(t, 2000, resp.ApprovedCRValue, 0.001)
		assert.Empty(t, resp.TopPrograms)
	})

	t.Run("finance scoped to accessible programs", func(t *testing.T) {
		resp, err := stats.GetStatistics(f.ctx(), actorFor(finance))
		require.NoError(t, err)
		assert.EqualValues(t, 1, resp.PurchaseRequests.Approved)
		assert.EqualValues(t, 1, resp.PurchaseRequests.Pending)
		assert.InDelta(t, 280, resp.ApprovedPRValue, 0.001)
	})

	t.Run("finance without access sees zeroes", func(t *testing.T) {
		require.NoError(t, f.userRepo.ReplaceProgramAccess(f.ctx(), finance, nil))
		resp, err := stats.GetStatistics(f.ctx(), actorFor(finance))
		require.NoError(t, err)
		assert.EqualValues(t, 0, resp.PurchaseRequests.Pending)
		assert.EqualValues(t, 0, resp.PurchaseRequests.Approved)
		assert.InDelta(t, 0, resp.ApprovedPRValue, 0.001)
		assert.Empty(t, resp.TopPrograms)
	})
}

func TestStatisticsService_TopProgramOrdering(t *testing.T) {
	f := newFixture(t)
	stats := NewStatisticsService(f.db, f.access)

	atlas := seedProgram(t, f.db, "Atlas Initiative", "ATLAS")
	horizon := seedProgram(t, f.db, "Horizon", "HRZN")
	user := seedUser(t, f.db, model.RoleUser, *atlas, *horizon)
	finance := seedUser(t, f.db, model.RoleFinance, *atlas, *horizon)
	admin := seedUser(t, f.db, model.RoleAdmin)

	approve := func(programID string, price int64) {
		req := prPayload(programID)
		req.Items = []PRItemPayload{{Item: "Line", Quantity: 1, Unit: "pcs", Price: decimal.NewFromInt(price)}}
		pr, err := f.prs.Create(f.ctx(), actorFor(user), req)
		require.NoError(t, err)
		_, err = f.prs.Review(f.ctx(), actorFor(finance), pr.ID.String(), ReviewRequestDTO{Status: model.StatusApproved})
		require.NoError(t, err)
	}

	approve(atlas.ID.String(), 100)
	approve(horizon.ID.String(), 400)
	approve(atlas.ID.String(), 150)

	resp, err := stats.GetStatistics(f.ctx(), actorFor(admin))
	require.NoError(t, err)
	require.Len(t, resp.TopPrograms, 2)
	assert.Equal(t, "HRZN", resp.TopPrograms[0].ProgramCode)
	assert.InDelta(t, 400, resp.TopPrograms[0].TotalValue, 0.001)
	assert.Equal(t, "ATLAS", resp.TopPrograms[1].ProgramCode)
	assert.InDelta(t, 250, resp.TopPrograms[1].TotalValue, 0.001)
}
