package fund

import (
	"errors"

	"maranatha-backend/internal/models"

	"gorm.io/gorm"
)

// ErrGroupNotFound is returned by Store implementations when a group id
// does not resolve.
var ErrGroupNotFound = errors.New("group not found")

// Store is the persistence contract the recorders need: row inserts plus
// the two balance adjustments. Adjustments must be atomic with respect to
// the stored balance (read-modify-write in one statement or equivalent).
type Store interface {
	GroupByID(id uint) (*models.Group, error)
	Groups() ([]models.Group, error)
	ActiveBeneficiaries(groupID uint) ([]models.Beneficiary, error)

	CreateDonation(d *models.Donation) error
	CreateDisbursement(d *models.Disbursement) error
	CreatePayments(ps []models.BeneficiaryPayment) error

	CreditGroupBalance(groupID uint, amountKes float64) error
	DebitGroupBalance(groupID uint, amountKes float64) error
}

// GormStore is the postgres-backed Store. Balance adjustments are a single
// UPDATE with a SQL expression, so concurrent adjustments serialize on the
// row instead of losing writes.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GroupByID(id uint) (*models.Group, error) {
	var g models.Group
	if err := s.db.First(&g, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (s *GormStore) Groups() ([]models.Group, error) {
	var groups []models.Group
	if err := s.db.Order("name asc").Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (s *GormStore) ActiveBeneficiaries(groupID uint) ([]models.Beneficiary, error) {
	var bs []models.Beneficiary
	err := s.db.
		Where("group_id = ? AND status = ?", groupID, models.BeneficiaryActive).
		Order("id asc").
		Find(&bs).Error
	if err != nil {
		return nil, err
	}
	return bs, nil
}

func (s *GormStore) CreateDonation(d *models.Donation) error {
	return s.db.Create(d).Error
}

func (s *GormStore) CreateDisbursement(d *models.Disbursement) error {
	return s.db.Create(d).Error
}

func (s *GormStore) CreatePayments(ps []models.BeneficiaryPayment) error {
	return s.db.Create(&ps).Error
}

func (s *GormStore) CreditGroupBalance(groupID uint, amountKes float64) error {
	return s.adjustBalance(groupID, amountKes)
}

func (s *GormStore) DebitGroupBalance(groupID uint, amountKes float64) error {
	return s.adjustBalance(groupID, -amountKes)
}

func (s *GormStore) adjustBalance(groupID uint, deltaKes float64) error {
	res := s.db.Model(&models.Group{}).
		Where("id = ?", groupID).
		Update("current_balance_kes", gorm.Expr("current_balance_kes + ?", deltaKes))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrGroupNotFound
	}
	return nil
}
