// Package domain contains persistence models for the organisation service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// State is the organisation lifecycle state. An organisation is created
// as CREATED and becomes DB_INITIALIZED once every module resolved.
type State string

const (
	StateCreated       State = "CREATED"
	StateDBInitialized State = "DB_INITIALIZED"
)

// ModuleState tracks one module's initialization for an organisation.
// FAILED is a terminal state like SUCCESS: it resolves the module without
// blocking the organisation.
type ModuleState string

const (
	ModulePending ModuleState = "PENDING"
	ModuleSuccess ModuleState = "SUCCESS"
	ModuleFailed  ModuleState = "FAILED"
)

// Organisation represents a tenant.
type Organisation struct {
	ID        snowflake.ID         `gorm:"primaryKey" json:"id"`
	Name      string               `gorm:"type:text;not null" json:"name"`
	Slug      string               `gorm:"type:text;not null;uniqueIndex:ux_organisations_owner_slug,priority:2" json:"slug"`
	OwnerID   string               `gorm:"type:text;not null;uniqueIndex:ux_organisations_owner_slug,priority:1" json:"owner_id"`
	State     State                `gorm:"type:text;not null;default:CREATED" json:"state"`
	Members   []OrganisationMember `gorm:"foreignKey:OrgID" json:"members,omitempty"`
	Modules   []OrganisationModule `gorm:"foreignKey:OrgID" json:"modules,omitempty"`
	CreatedAt time.Time            `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time            `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Organisation) TableName() string { return "organisations" }

// OrganisationMember represents a collaborator in an organisation.
type OrganisationMember struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;index;uniqueIndex:ux_org_member,priority:1" json:"org_id"`
	UserID    string       `gorm:"type:text;not null;uniqueIndex:ux_org_member,priority:2" json:"user_id"`
	Role      string       `gorm:"type:text;not null" json:"role"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (OrganisationMember) TableName() string { return "organisation_members" }

// OrganisationModule is one module's per-organisation initialization
// record, uniquely identified by (org_id, name_slug).
type OrganisationModule struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;index;uniqueIndex:ux_organisation_modules_org_slug,priority:1" json:"org_id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	NameSlug  string       `gorm:"type:text;not null;uniqueIndex:ux_organisation_modules_org_slug,priority:2" json:"name_slug"`
	State     ModuleState  `gorm:"type:text;not null;default:PENDING" json:"state"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (OrganisationModule) TableName() string { return "organisation_modules" }

const (
	RoleOwner  = "OWNER"
	RoleMember = "MEMBER"
)
