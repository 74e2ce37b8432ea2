package service

import (
	"context"

	"procurement/internal/model"
	"procurement/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StatisticsService interface {
	GetStatistics(ctx context.Context, actor model.Actor) (model.StatisticsResponse, error)
}

type statisticsService struct {
	db     *gorm.DB
	access AccessResolver
}

func NewStatisticsService(db *gorm.DB, access AccessResolver) StatisticsService {
	return &statisticsService{db: db, access: access}
}

// readScope mirrors the list endpoints' role filter so the dashboard never
// reveals more than the corresponding listing would.
type readScope struct {
	all        bool
	programIDs []uuid.UUID
	createdBy  *uuid.UUID
}

func (s *statisticsService) scopeFor(ctx context.Context, actor model.Actor) (readScope, error) {
	switch actor.Role {
	case model.RoleAdmin:
		return readScope{all: true}, nil
	case model.RoleFinance:
		ids, err := s.access.AccessiblePrograms(ctx, actor)
		if err != nil {
			return readScope{}, err
		}
		return readScope{programIDs: ids}, nil
	default:
		userID := actor.UserID
		return readScope{createdBy: &userID}, nil
	}
}

func (sc readScope) apply(q *gorm.DB) *gorm.DB {
	return sc.applyOn(q, "")
}

// applyOn qualifies the filter columns with a table name for joined queries.
func (sc readScope) applyOn(q *gorm.DB, table string) *gorm.DB {
	prefix := ""
	if table != "" {
		prefix = table + "."
	}
	if sc.all {
		return q
	}
	if sc.createdBy != nil {
		return q.Where(prefix+"created_by = ?", *sc.createdBy)
	}
	return q.Where(prefix+"program_id IN ?", sc.programIDs)
}

// empty reports a scope that can never match any row.
func (sc readScope) empty() bool {
	return !sc.all && sc.createdBy == nil && len(sc.programIDs) == 0
}

// GetStatistics aggregates dashboard metrics within the caller's read scope
func (s *statisticsService) GetStatistics(ctx context.Context, actor model.Actor) (model.StatisticsResponse, error) {
	var response model.StatisticsResponse

	scope, err := s.scopeFor(ctx, actor)
	if err != nil {
		return response, err
	}
	if scope.empty() {
		response.TopPrograms = []model.ProgramSpend{}
		return response, nil
	}

	prCounts, err := s.countByStatus(ctx, "purchase_requests", scope)
	if err != nil {
		return response, apperror.Internal("failed to aggregate purchase requests", err)
	}
	response.PurchaseRequests = prCounts

	crCounts, err := s.countByStatus(ctx, "cash_requests", scope)
	if err != nil {
		return response, apperror.Internal("failed to aggregate cash requests", err)
	}
	response.CashRequests = crCounts

	// Approved totals. Purchase requests carry no total column, so the value
	// is summed from their line items.
	var approvedPR struct {
		Value float64
	}
	if err := scope.applyOn(s.db.WithContext(ctx).Table("pr_items"), "purchase_requests").
		Select("COALESCE(SUM(pr_items.total_price), 0) as value").
		Joins("JOIN purchase_requests ON purchase_requests.id = pr_items.purchase_request_id").
		Where("purchase_requests.status = ?", model.StatusApproved).
		Scan(&approvedPR).Error; err != nil {
		return response, apperror.Internal("failed to sum approved purchase requests", err)
	}
	response.ApprovedPRValue = approvedPR.Value

	var approvedCR struct {
		Value float64
	}
	if err := scope.apply(s.db.WithContext(ctx).Table("cash_requests")).
		Select("COALESCE(SUM(total_amount), 0) as value").
		Where("status = ?", model.StatusApproved).
		Scan(&approvedCR).Error; err != nil {
		return response, apperror.Internal("failed to sum approved cash requests", err)
	}
	response.ApprovedCRValue = approvedCR.Value

	// Top programs by approved purchase-request value
	var topPrograms []model.ProgramSpend
	if err := scope.applyOn(s.db.WithContext(ctx).Table("pr_items"), "purchase_requests").
		Select("purchase_requests.program_id, purchase_requests.program_name, purchase_requests.program_code, SUM(pr_items.total_price) as total_value").
		Joins("JOIN purchase_requests ON purchase_requests.id = pr_items.purchase_request_id").
		Where("purchase_requests.status = ?", model.StatusApproved).
		Group("purchase_requests.program_id, purchase_requests.program_name, purchase_requests.program_code").
		Order("total_value DESC").
		Limit(5).
		Scan(&topPrograms).Error; err != nil {
		return response, apperror.Internal("failed to rank programs", err)
	}
	if topPrograms == nil {
		topPrograms = []model.ProgramSpend{}
	}
	response.TopPrograms = topPrograms

	return response, nil
}

func (s *statisticsService) countByStatus(ctx context.Context, table string, scope readScope) (model.StatusCounts, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := scope.apply(s.db.WithContext(ctx).Table(table)).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return model.StatusCounts{}, err
	}

	var counts model.StatusCounts
	for _, row := range rows {
		switch row.Status {
		case model.StatusPending:
			counts.Pending = row.Count
		case model.StatusApproved:
			counts.Approved = row.Count
		case model.StatusRejected:
			counts.Rejected = row.Count
		}
	}
	return counts, nil
}
