package service

import (
	"time"

	"go-stock-approval/internal/repository"
)

// DashboardService serves reporting views over the reviewed ledger.
// Only approved movements count; pending and rejected ones are excluded
// by the repository aggregates.
type DashboardService interface {
	GetStockMovement(days int) ([]repository.StockMovementData, error)
	GetDashboardStats() (*repository.DashboardStats, error)
}

type dashboardService struct {
	txRepo repository.TransactionRepository
}

func NewDashboardService(txRepo repository.TransactionRepository) DashboardService {
	return &dashboardService{txRepo: txRepo}
}

// GetStockMovement aggregates approved IN/OUT quantities per day over
// the last `days` days.
func (s *dashboardService) GetStockMovement(days int) ([]repository.StockMovementData, error) {
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -days)

	return s.txRepo.GetStockMovement(startDate, endDate)
}

func (s *dashboardService) GetDashboardStats() (*repository.DashboardStats, error) {
	return s.txRepo.GetDashboardStats()
}
