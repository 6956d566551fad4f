package db

import (
	"Gin_postgres_redis_swab_tracker/models"
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	err = Migrate(DB)
	if err != nil {
		log.Fatal("Failed to migrate models: ", err)
	}
	log.Println("Database connected")
	return DB
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Swab{},
		&models.Machine{},
		&models.SwabState{},
		&models.Movement{},
		&models.UsageSession{},
		&models.UsageDay{},
		&models.Setting{},
	); err != nil {
		return err
	}

	// 同一支 swab 最多一条“未归还”的 session
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_one_open_per_swab
	  ON %s (swab_id)
	  WHERE returned_ts IS NULL;
	`, models.SessionTable, models.SessionTable)).Error; err != nil {
		return err
	}

	// 查询当前打开的 session 更快
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_open_swab_takents_desc
	  ON %s (swab_id, taken_ts DESC)
	  WHERE returned_ts IS NULL;
	`, models.SessionTable, models.SessionTable)).Error; err != nil {
		return err
	}

	// action 只允许 TAKE/RETURN
	if err := db.Exec(fmt.Sprintf(`
	  DO $$ BEGIN
	    ALTER TABLE %s ADD CONSTRAINT movements_action_check
	      CHECK (action IN ('TAKE','RETURN'));
	  EXCEPTION WHEN duplicate_object THEN NULL;
	  END $$;
	`, models.MovementTable)).Error; err != nil {
		return err
	}

	return seedSettings(db)
}

// 默认设置只在缺失时写入，管理端随时可覆盖
func seedSettings(db *gorm.DB) error {
	defaults := map[string]string{
		models.SettingWarnDays:            fmt.Sprintf("%d", models.DefaultWarnDays),
		models.SettingAlarmDays:           fmt.Sprintf("%d", models.DefaultAlarmDays),
		models.SettingBarcodeModuleWidth:  fmt.Sprintf("%g", models.DefaultBarcodeModuleWidth),
		models.SettingBarcodeModuleHeight: fmt.Sprintf("%g", models.DefaultBarcodeModuleHeight),
		models.SettingBarcodeQuietZone:    fmt.Sprintf("%g", models.DefaultBarcodeQuietZone),
		models.SettingBarcodeFontSize:     fmt.Sprintf("%d", models.DefaultBarcodeFontSize),
		models.SettingBarcodeTextDistance: fmt.Sprintf("%g", models.DefaultBarcodeTextDistance),
		models.SettingBarcodeWriteText:    "0",
		models.SettingBarcodeSettingsHash: models.DefaultBarcodeSettings().Hash(),
	}
	for k, v := range defaults {
		if err := db.Exec(fmt.Sprintf(`
		  INSERT INTO %s (key, value) VALUES (?, ?)
		  ON CONFLICT (key) DO NOTHING;
		`, models.SettingTable), k, v).Error; err != nil {
			return err
		}
	}
	return nil
}
