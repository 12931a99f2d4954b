package models

// User roles. A role is resolved into a capability set once, when the
// actor authenticates; everything downstream checks capabilities only.
const (
	RoleSuperReviewer = "super_reviewer"
	RoleAuditor       = "auditor"
	RoleViewer        = "viewer"
)

type User struct {
	Base
	Username    string `gorm:"uniqueIndex;not null" json:"username"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `gorm:"not null" json:"-"` // bcrypt hash
	Role        string `gorm:"default:'viewer'" json:"role"`
	Active      bool   `gorm:"default:true" json:"active"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// Capabilities is the explicit permission set attached to an authenticated
// actor. Components check these instead of re-deriving the role.
type Capabilities struct {
	CanUpload bool
	CanReview bool
	CanAudit  bool
}

func CapabilitiesForRole(role string) Capabilities {
	switch role {
	case RoleSuperReviewer:
		return Capabilities{CanUpload: true, CanReview: true, CanAudit: true}
	case RoleAuditor:
		return Capabilities{CanUpload: true, CanAudit: true}
	default:
		return Capabilities{CanUpload: true}
	}
}

// Actor is an authenticated user plus their resolved capabilities.
type Actor struct {
	User *User
	Caps Capabilities
}

func NewActor(u *User) *Actor {
	return &Actor{User: u, Caps: CapabilitiesForRole(u.Role)}
}
