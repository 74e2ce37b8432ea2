package model

// StatusCounts aggregates document counts per lifecycle state.
type StatusCounts struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

// ProgramSpend ranks a program by its approved purchase-request value.
type ProgramSpend struct {
	ProgramID   string  `json:"program_id"`
	ProgramName string  `json:"program_name"`
	ProgramCode string  `json:"program_code"`
	TotalValue  float64 `json:"total_value"`
}

// StatisticsResponse backs the dashboard cards. All figures are scoped by the
// caller's read filter (admin: everything, finance: accessible programs,
// user: own documents).
type StatisticsResponse struct {
	PurchaseRequests StatusCounts   `json:"purchase_requests"`
	CashRequests     StatusCounts   `json:"cash_requests"`
	ApprovedPRValue  float64        `json:"approved_pr_value"`
	ApprovedCRValue  float64        `json:"approved_cr_value"`
	TopPrograms      []ProgramSpend `json:"top_programs"`
}
