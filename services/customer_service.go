package services

import (
	"context"
	"fmt"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/models"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/utils"
	"gorm.io/gorm"
)

// CustomerService -> data customer. Berbeda dengan reservasi, customer tidak
// boleh dihapus selama masih dirujuk reservasi atau refill request.
type CustomerService struct {
	db *gorm.DB
}

// NewCustomerService membuat instance baru CustomerService
func NewCustomerService(db *gorm.DB) *CustomerService {
	return &CustomerService{db: db}
}

func (s *CustomerService) Get(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := s.db.WithContext(ctx).First(&customer, id).Error; err != nil {
		return nil, notFoundOr(err, "Customer")
	}
	return &customer, nil
}

func (s *CustomerService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.First(&customer, id).Error; err != nil {
			return notFoundOr(err, "Customer")
		}

		var reservations, refills int64
		if err := tx.Model(&models.Reservation{}).Where("customer_id = ?", id).Count(&reservations).Error; err != nil {
			return fmt.Errorf("count customer reservations: %w", err)
		}
		if err := tx.Model(&models.RefillRequest{}).Where("customer_id = ?", id).Count(&refills).Error; err != nil {
			return fmt.Errorf("count customer refill requests: %w", err)
		}
		if reservations > 0 || refills > 0 {
			return &ConflictError{Message: fmt.Sprintf(
				"customer has %d reservation(s) and %d refill request(s) and cannot be deleted", reservations, refills)}
		}

		if err := tx.Delete(&customer).Error; err != nil {
			return fmt.Errorf("delete customer %d: %w", id, err)
		}
		utils.InfoLogger.WithField("customer_id", id).Info("Customer deleted")
		return nil
	})
}
