package models

import (
	"fmt"
	"strconv"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/studygrouphub/backend/internal/config"
	"github.com/studygrouphub/backend/pkg/logger"
)

// InitDB opens the configured database and applies pool settings.
func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = MySQLDSN(cfg.MySQL)
		}
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	}

	logger.Info().Str("driver", cfg.Driver).Msg("Database connected")
	return db, nil
}

// MySQLDSN assembles a DSN from discrete settings.
func MySQLDSN(m config.MySQLConfig) string {
	dc := mysqldriver.NewConfig()
	dc.User = m.User
	dc.Passwd = m.Password
	dc.Net = "tcp"
	dc.Addr = m.Host + ":" + strconv.Itoa(m.Port)
	dc.DBName = m.Name
	dc.ParseTime = true
	dc.Loc = time.Local
	if m.Charset != "" {
		dc.Params = map[string]string{"charset": m.Charset}
	}
	return dc.FormatDSN()
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Course{},
		&Group{},
		&UserGroup{},
		&Task{},
		&File{},
		&MemberStats{},
		&Invitation{},
	)
}

// SeedDefaultData inserts a demo course and two users into an empty database.
func SeedDefaultData(db *gorm.DB) error {
	var courseCount int64
	if err := db.Model(&Course{}).Count(&courseCount).Error; err != nil {
		return err
	}
	if courseCount == 0 {
		course := Course{CourseName: "数据结构", CourseCode: "CS201", Semester: "2024-秋"}
		if err := db.Create(&course).Error; err != nil {
			return err
		}
		logger.Info().Int64("course_id", course.CourseID).Msg("Seeded default course")
	}

	var userCount int64
	if err := db.Model(&User{}).Count(&userCount).Error; err != nil {
		return err
	}
	if userCount == 0 {
		users := []User{
			{UserName: "张三", Contact: "13800138000"},
			{UserName: "李四", Contact: "13900139000"},
		}
		if err := db.Create(&users).Error; err != nil {
			return err
		}
		logger.Info().Int("count", len(users)).Msg("Seeded default users")
	}
	return nil
}
