package entity

import (
	"sort"
	"strings"
	"time"
)

// Author 作者, 来自 AUTHORS.txt
type Author struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
}

type ProjectGroup struct {
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// AuthorsKey 排序后以逗号连接的学号, 相同作者集合对应同一小组
	AuthorsKey string        `gorm:"column:authors_key;type:varchar(512);not null;uniqueIndex"`
	Members    []GroupMember `gorm:"foreignKey:GroupID"`
	CreatedAt  time.Time     `gorm:"column:created_at"`
}

func (ProjectGroup) TableName() string {
	return "project_group"
}

type GroupMember struct {
	ID        uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	GroupID   uint64 `gorm:"column:group_id;not null;uniqueIndex:uk_group_student"`
	StudentID string `gorm:"column:student_id;type:varchar(64);not null;uniqueIndex:uk_group_student;index"`
	Name      string `gorm:"column:name;type:varchar(255)"`
}

func (GroupMember) TableName() string {
	return "group_member"
}

// AuthorsKey 计算作者集合的唯一标识
func AuthorsKey(authors []Author) string {
	ids := make([]string, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.StudentID)
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

// Contains 判断小组是否包含该学生
func (g *ProjectGroup) Contains(studentID string) bool {
	for _, m := range g.Members {
		if m.StudentID == studentID {
			return true
		}
	}
	return false
}

// Authors 小组成员转为作者列表
func (g *ProjectGroup) Authors() []Author {
	out := make([]Author, 0, len(g.Members))
	for _, m := range g.Members {
		out = append(out, Author{StudentID: m.StudentID, Name: m.Name})
	}
	return out
}

// StudentIDs 成员学号
func (g *ProjectGroup) StudentIDs() []string {
	out := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		out = append(out, m.StudentID)
	}
	return out
}
