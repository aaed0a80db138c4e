package ioc

import (
	"log"
	"time"

	"github.com/spf13/viper"
	gormprom "github.com/to404hanga/pkg404/gormx/callbacks/prometheus"
	"github.com/to404hanga/submission_controller/config"
	"github.com/to404hanga/submission_controller/entity"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"
)

func InitDB() *gorm.DB {
	var cfg config.DBConfig
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal db config failed: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Panicf("invalid db config: %v", err)
	}

	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Warn),
	})
	if err != nil {
		log.Panicf("open db failed: %v", err)
	}

	cb := &gormprom.Callbacks{
		Namespace:  "to404hanga",
		Subsystem:  "submission_controller",
		Name:       "gorm_query_duration_ms",
		InstanceId: cfg.InstanceID,
		Help:       "gorm 语句耗时",
	}
	if err = cb.Initialize(db); err != nil {
		log.Panicf("register gorm prometheus callbacks failed: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Panicf("get sql db failed: %v", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	if cfg.AutoMigrate {
		if err = db.AutoMigrate(entity.Models()...); err != nil {
			log.Panicf("auto migrate failed: %v", err)
		}
	}
	return db
}
