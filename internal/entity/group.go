package entity

import (
	"time"
)

type GroupRole string

const (
	RoleMember  GroupRole = "member"
	RoleAdmin   GroupRole = "admin"
	RoleCreator GroupRole = "creator"
)

// Elevated roles may delete other members' messages.
func (r GroupRole) Elevated() bool {
	return r == RoleAdmin || r == RoleCreator
}

type Group struct {
	ID        string    `gorm:"primaryKey"`
	Name      string    `gorm:"not null"`
	CreatedBy string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

type GroupMember struct {
	ID       int64     `gorm:"primaryKey"`
	GroupID  string    `gorm:"not null;index"`
	UserID   string    `gorm:"not null;index"`
	Role     GroupRole `gorm:"not null"`
	JoinedAt time.Time `gorm:"autoCreateTime"`
}

type GroupRoster struct {
	Group   Group
	Members []GroupMember
}

func (g *GroupRoster) RoleOf(userID string) (GroupRole, bool) {
	for _, m := range g.Members {
		if m.UserID == userID {
			return m.Role, true
		}
	}
	return "", false
}

func (g *GroupRoster) MemberIDs() []string {
	ids := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}
