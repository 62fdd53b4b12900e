package models

import (
	"time"
)

// Membership roles
const (
	RoleCreator = "creator"
	RoleLeader  = "leader"
	RoleMember  = "member"
)

// Task status values as stored and returned on the wire.
const (
	TaskStatusPending = "待办"
	TaskStatusDone    = "完成"
)

// NormalizeTaskStatus maps accepted inputs (stored literals or the English
// aliases pending/done) to a stored status. ok is false for anything else.
func NormalizeTaskStatus(s string) (status string, ok bool) {
	switch s {
	case TaskStatusPending, "pending":
		return TaskStatusPending, true
	case TaskStatusDone, "done":
		return TaskStatusDone, true
	}
	return "", false
}

// User is a registered student. Rows are provisioned outside this service.
type User struct {
	UserID   int64  `gorm:"column:user_id;primaryKey;autoIncrement" json:"user_id"`
	UserName string `gorm:"column:user_name;size:50;not null" json:"user_name"`
	Contact  string `gorm:"column:contact;size:100;not null" json:"contact"`
}

func (User) TableName() string { return "sg_user" }

// Course is read-only reference data.
type Course struct {
	CourseID   int64  `gorm:"column:course_id;primaryKey;autoIncrement" json:"course_id"`
	CourseName string `gorm:"column:course_name;size:100;not null" json:"course_name"`
	CourseCode string `gorm:"column:course_code;size:30" json:"course_code"`
	Semester   string `gorm:"column:semester;size:30" json:"semester"`
}

func (Course) TableName() string { return "sg_course" }

type Group struct {
	GroupID    int64     `gorm:"column:group_id;primaryKey;autoIncrement" json:"group_id"`
	GroupName  string    `gorm:"column:group_name;size:30;not null" json:"group_name"`
	CourseID   int64     `gorm:"column:course_id;index;not null" json:"course_id"`
	CreateTime time.Time `gorm:"column:create_time;not null" json:"create_time"`
}

func (Group) TableName() string { return "sg_group" }

// UserGroup is a membership row. PermissionLevel is optional and only read by
// the task status permission check.
type UserGroup struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID          int64     `gorm:"column:user_id;uniqueIndex:idx_user_group;not null" json:"user_id"`
	GroupID         int64     `gorm:"column:group_id;uniqueIndex:idx_user_group;index;not null" json:"group_id"`
	Role            string    `gorm:"column:role;size:20;default:member" json:"role"` // creator, leader, member
	JoinTime        time.Time `gorm:"column:join_time;not null" json:"join_time"`
	PermissionLevel *int      `gorm:"column:permission_level" json:"permission_level"`
}

func (UserGroup) TableName() string { return "sg_user_group" }

type Task struct {
	TaskID       int64      `gorm:"column:task_id;primaryKey;autoIncrement" json:"task_id"`
	TaskDesc     string     `gorm:"column:task_desc;size:500;not null" json:"task_desc"`
	CreateTime   time.Time  `gorm:"column:create_time;not null" json:"create_time"`
	CompleteTime *time.Time `gorm:"column:complete_time" json:"complete_time"`
	Status       string     `gorm:"column:status;size:10;not null" json:"status"`
	GroupID      int64      `gorm:"column:group_id;index;not null" json:"group_id"`
	LeaderID     int64      `gorm:"column:leader_id;index;not null" json:"leader_id"`
}

func (Task) TableName() string { return "sg_task" }

// File is the metadata row for bytes stored at <base>/<group_id>/<store_name>.
type File struct {
	FileID       int64     `gorm:"column:file_id;primaryKey;autoIncrement" json:"file_id"`
	OriginalName string    `gorm:"column:original_name;size:255;not null" json:"original_name"`
	StoreName    string    `gorm:"column:store_name;size:255;not null" json:"store_name"`
	FileSize     int64     `gorm:"column:file_size;not null" json:"file_size"` // KB
	UploadTime   time.Time `gorm:"column:upload_time;not null" json:"upload_time"`
	GroupID      int64     `gorm:"column:group_id;index;not null" json:"group_id"`
	UploaderID   int64     `gorm:"column:uploader_id;index;not null" json:"uploader_id"`
}

func (File) TableName() string { return "sg_file" }

// MemberStats caches per-member counts; Task and File stay the source of truth.
type MemberStats struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	UserID         int64     `gorm:"column:user_id;uniqueIndex:idx_stats_user_group;not null" json:"user_id"`
	GroupID        int64     `gorm:"column:group_id;uniqueIndex:idx_stats_user_group;not null" json:"group_id"`
	TotalTasks     int64     `gorm:"column:total_tasks;not null;default:0" json:"total_tasks"`
	CompletedTasks int64     `gorm:"column:completed_tasks;not null;default:0" json:"completed_tasks"`
	UploadedFiles  int64     `gorm:"column:uploaded_files;not null;default:0" json:"uploaded_files"`
	LastActive     time.Time `gorm:"column:last_active" json:"last_active"`
}

func (MemberStats) TableName() string { return "sg_member_stats" }

// Invitation is a best-effort audit record of an invite.
type Invitation struct {
	InvitationID int64     `gorm:"column:invitation_id;primaryKey;autoIncrement" json:"invitation_id"`
	GroupID      int64     `gorm:"column:group_id;index;not null" json:"group_id"`
	InviterID    int64     `gorm:"column:inviter_id;not null" json:"inviter_id"`
	InviteeID    int64     `gorm:"column:invitee_id;not null" json:"invitee_id"`
	CreateTime   time.Time `gorm:"column:create_time;not null" json:"create_time"`
}

func (Invitation) TableName() string { return "sg_invitation" }
