package service

import (
	"context"
	"fmt"
	"time"

	"procurement/internal/model"
	"procurement/pkg/apperror"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ExportService renders role-filtered request listings as XLSX workbooks.
// The caller sees exactly the rows the corresponding list endpoint would
// return.
type ExportService interface {
	ExportPurchaseRequests(ctx context.Context, actor model.Actor) ([]byte, string, error)
	ExportCashRequests(ctx context.Context, actor model.Actor) ([]byte, string, error)
}

type exportService struct {
	prService PurchaseRequestService
	crService CashRequestService
}

// NewExportService returns a new instance of ExportService
func NewExportService(prService PurchaseRequestService, crService CashRequestService) ExportService {
	return &exportService{prService: prService, crService: crService}
}

func (s *exportService) ExportPurchaseRequests(ctx context.Context, actor model.Actor) ([]byte, string, error) {
	prs, err := s.prService.List(ctx, actor)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Purchase Requests"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, "", apperror.Internal("failed to build workbook", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	writeExportHeader(f, sheet, "Purchase Requests", actor)

	headers := []string{"PR Number", "Program", "Activity", "Department", "Budgeted", "Status", "Created By", "Created At", "Total"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 4)
		_ = f.SetCellValue(sheet, cell, h)
	}

	grandTotal := decimal.Zero
	row := 5
	for _, pr := range prs {
		total := decimal.Zero
		for _, item := range pr.Items {
			total = total.Add(item.TotalPrice)
		}
		grandTotal = grandTotal.Add(total)

		budgeted := "No"
		if pr.Budgeted {
			budgeted = "Yes"
		}

		values := []interface{}{
			pr.PRNumber,
			fmt.Sprintf("%s (%s)", pr.ProgramName, pr.ProgramCode),
			pr.ActivityName,
			pr.Department,
			budgeted,
			pr.Status,
			pr.CreatedByName,
			pr.CreatedAt.Format("2006-01-02"),
			total.InexactFloat64(),
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	writeTotalsRow(f, sheet, row, len(headers), grandTotal)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", apperror.Internal("failed to write workbook", err)
	}

	filename := fmt.Sprintf("purchase_requests_%s.xlsx", time.Now().Format("20060102"))
	return buf.Bytes(), filename, nil
}

func (s *exportService) ExportCashRequests(ctx context.Context, actor model.Actor) ([]byte, string, error) {
	crs, err := s.crService.List(ctx, actor)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Cash Requests"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, "", apperror.Internal("failed to build workbook", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	writeExportHeader(f, sheet, "Cash Requests", actor)

	headers := []string{"Activity", "Program", "Vendor", "Bank", "Account", "Status", "Tax", "Created By", "Created At", "Total"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 4)
		_ = f.SetCellValue(sheet, cell, h)
	}

	grandTotal := decimal.Zero
	row := 5
	for _, cr := range crs {
		grandTotal = grandTotal.Add(cr.TotalAmount)

		tax := "-"
		if cr.UseTax {
			tax = fmt.Sprintf("%s%% (%s)", cr.TaxPercentage.String(), cr.TaxAmount.StringFixed(2))
		}

		values := []interface{}{
			cr.ActivityName,
			fmt.Sprintf("%s (%s)", cr.ProgramName, cr.ProgramCode),
			cr.VendorName,
			cr.BankName,
			cr.AccountNumber,
			cr.Status,
			tax,
			cr.CreatedByName,
			cr.CreatedAt.Format("2006-01-02"),
			cr.TotalAmount.InexactFloat64(),
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	writeTotalsRow(f, sheet, row, len(headers), grandTotal)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", apperror.Internal("failed to write workbook", err)
	}

	filename := fmt.Sprintf("cash_requests_%s.xlsx", time.Now().Format("20060102"))
	return buf.Bytes(), filename, nil
}

// writeExportHeader fills the metadata block above the table.
func writeExportHeader(f *excelize.File, sheet, title string, actor model.Actor) {
	_ = f.SetCellValue(sheet, "A1", title)
	_ = f.SetCellValue(sheet, "A2", fmt.Sprintf("Exported by %s on %s", actor.Name, time.Now().Format("2006-01-02 15:04")))
}

// writeTotalsRow appends a grand-total line under the table, with the figure
// in the last column.
func writeTotalsRow(f *excelize.File, sheet string, row, columns int, total decimal.Decimal) {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	_ = f.SetCellValue(sheet, cell, "Grand Total")
	last, _ := excelize.CoordinatesToCellName(columns, row)
	_ = f.SetCellValue(sheet, last, total.InexactFloat64())
}
