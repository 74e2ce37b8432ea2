package service

import (
	"bytes"
	"strings"
	"testing"

	"procurement/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportService_PurchaseRequests(t *testing.T) {
	f := newFixture(t)
	exporter := NewExportService(f.prs, f.crs)

	program := seedProgram(t, f.db, "Atlas Initiative", "ATLAS")
	creator := seedUser(t, f.db, model.RoleUser, *program)
	admin := seedUser(t, f.db, model.RoleAdmin)

	_, err := f.prs.Create(f.ctx(), actorFor(creator), prPayload(program.ID.String()))
	require.NoError(t, err)

	data, filename, err := exporter.ExportPurchaseRequests(f.ctx(), actorFor(admin))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filename, "purchase_requests_"))
	assert.True(t, strings.HasSuffix(filename, ".xlsx"))

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows("Purchase Requests")
	require.NoError(t, err)
	// Metadata block, header row, one data row, grand total.
	require.GreaterOrEqual(t, len(rows), 6)
	assert.Equal(t, "PR Number", rows[3][0])
	assert.Contains(t, rows[4][0], "ATLAS-")
	assert.Equal(t, "Grand Total", rows[5][0])
}

func TestExportService_CashRequestsScoped(t *testing.T) {
	f := newFixture(t)
	exporter := NewExportService(f.prs, f.crs)

	program := seedProgram(t, f.db, "Atlas Initiative", "ATLAS")
	alice := seedUser(t, f.db, model.RoleUser, *program)
	bob := seedUser(t, f.db, model.RoleUser, *program)

	_, err := f.crs.Create(f.ctx(), actorFor(alice), crPayload(program.ID.String()))
	require.NoError(t, err)
	_, err = f.crs.Create(f.ctx(), actorFor(bob), crPayload(program.ID.String()))
	require.NoError(t, err)

	// The export honors the same read filter as the listing: bob gets his
	// single request, not alice's.
	data, _, err := exporter.ExportCashRequests(f.ctx(), actorFor(bob))
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows("Cash Requests")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 6)
	assert.Equal(t, "Venue deposit", rows[4][0])
	assert.Equal(t, "Grand Total", rows[5][0])
}
