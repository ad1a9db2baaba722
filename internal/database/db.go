package database

import (
	"maranatha-backend/internal/config"
	"maranatha-backend/internal/logging"
	"maranatha-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		logging.L().Fatalf("could not connect to database: %v", err)
	}

	// Older deployments carried a percentage-based split on groups before the
	// krona-ratio weights. The column stays for schema compatibility and is
	// always written as 0; backfill NULLs before AutoMigrate adds NOT NULL.
	if DB.Migrator().HasTable(&models.Group{}) &&
		DB.Migrator().HasColumn(&models.Group{}, "disbursement_percentage") {
		var nullCount int64
		DB.Raw("SELECT COUNT(*) FROM groups WHERE disbursement_percentage IS NULL").Scan(&nullCount)
		if nullCount > 0 {
			logging.L().Infof("backfilling %d NULL disbursement_percentage rows to 0", nullCount)
			DB.Exec("UPDATE groups SET disbursement_percentage = 0 WHERE disbursement_percentage IS NULL")
		}
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.Donor{},
		&models.Group{},
		&models.Beneficiary{},
		&models.Donation{},
		&models.Disbursement{},
		&models.BeneficiaryPayment{},
		&models.AuditLog{},
	)
	if err != nil {
		logging.L().Fatalf("AutoMigrate failed: %v", err)
	}

	logging.L().Info("database connected, migrations complete")
}
