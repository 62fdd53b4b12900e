// Package testutil builds throwaway databases for package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/studygrouphub/backend/internal/models"
)

// NewDB returns a migrated in-memory sqlite database private to t.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Fixture holds ids created by Seed.
type Fixture struct {
	CourseID int64
	Alice    int64 // group creator
	Bob      int64 // member
	Carol    int64 // not in the group
	GroupID  int64
}

// Seed creates a course, three users and one group where Alice is the
// creator and Bob a member.
func Seed(t testing.TB, db *gorm.DB) Fixture {
	t.Helper()

	course := models.Course{CourseName: "数据结构", CourseCode: "CS201", Semester: "2024-秋"}
	mustCreate(t, db, &course)

	alice := models.User{UserName: "Alice", Contact: "13800000001"}
	bob := models.User{UserName: "Bob", Contact: "13800000002"}
	carol := models.User{UserName: "Carol", Contact: "13800000003"}
	mustCreate(t, db, &alice)
	mustCreate(t, db, &bob)
	mustCreate(t, db, &carol)

	group := models.Group{GroupName: "算法小组", CourseID: course.CourseID, CreateTime: Now()}
	mustCreate(t, db, &group)

	mustCreate(t, db, &models.UserGroup{UserID: alice.UserID, GroupID: group.GroupID, Role: models.RoleCreator, JoinTime: Now()})
	mustCreate(t, db, &models.UserGroup{UserID: bob.UserID, GroupID: group.GroupID, Role: models.RoleMember, JoinTime: Now()})

	return Fixture{
		CourseID: course.CourseID,
		Alice:    alice.UserID,
		Bob:      bob.UserID,
		Carol:    carol.UserID,
		GroupID:  group.GroupID,
	}
}

func mustCreate(t testing.TB, db *gorm.DB, v interface{}) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}

// Now is the current time at second precision, matching what the API renders.
func Now() time.Time {
	return time.Now().Truncate(time.Second)
}
