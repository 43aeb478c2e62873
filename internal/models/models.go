// Package models defines the club tables. GORM maps each struct to a table and the
// struct tags describe columns, constraints and relationships.
//
// The club data is small:
//   - ClubMembers sign up and wait for an admin to approve them
//   - Approved, active members post RaceReactions about a specific race
//
// The schema itself is owned by the SQL files in migrations/; these structs must stay
// in step with them.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MemberStatus is where a member is in the approval flow.
type MemberStatus string

const (
	MemberStatusPending  MemberStatus = "pending"  // Signed up, waiting for an admin
	MemberStatusApproved MemberStatus = "approved" // Allowed to post reactions (while active)
	MemberStatusRejected MemberStatus = "rejected" // Turned down; cannot post
)

// Valid reports whether s is one of the known statuses.
func (s MemberStatus) Valid() bool {
	switch s {
	case MemberStatusPending, MemberStatusApproved, MemberStatusRejected:
		return true
	}
	return false
}

// ReactionType is a free-form label; these are the ones the frontend offers.
const (
	ReactionComment = "comment"
	ReactionCheer   = "cheer"
	ReactionShock   = "shock"
)

// ClubMember is a person who signed up for the fan club.
// Email is stored trimmed and lower-cased so uniqueness is case-insensitive.
type ClubMember struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	Email       string         `gorm:"uniqueIndex;not null" json:"email"`
	City        *string        `json:"city"`
	Status      MemberStatus   `gorm:"not null;default:'pending'" json:"status"`
	IsActive    bool           `gorm:"not null;default:true" json:"is_active"`
	SubmittedAt time.Time      `gorm:"autoCreateTime" json:"submitted_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Reactions   []RaceReaction `gorm:"foreignKey:MemberID" json:"-"`
}

// BeforeCreate fills in the primary key. The IDs are generated in Go rather than by a
// database default so the same models work on Postgres and on SQLite in tests.
func (m *ClubMember) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// CanReact reports whether the member may post reactions right now.
func (m *ClubMember) CanReact() bool {
	return m.Status == MemberStatusApproved && m.IsActive
}

// RaceReaction is a member's comment on one race, identified by season and round.
type RaceReaction struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	MemberID     uuid.UUID   `gorm:"type:uuid;not null;index" json:"member_id"`
	Member       *ClubMember `gorm:"constraint:OnDelete:CASCADE" json:"member,omitempty"`
	RaceYear     int         `gorm:"not null;index:idx_race_reactions_race" json:"race_year"`
	RaceRound    int         `gorm:"not null;index:idx_race_reactions_race" json:"race_round"`
	RaceName     *string     `json:"race_name"`
	Comment      *string     `json:"comment"`
	ReactionType string      `gorm:"not null;default:'comment'" json:"reaction_type"`
	CreatedAt    time.Time   `gorm:"index" json:"created_at"`
}

func (r *RaceReaction) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// All is every model, in dependency order, for AutoMigrate in tests and tools.
func All() []any {
	return []any{&ClubMember{}, &RaceReaction{}}
}
