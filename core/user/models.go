package user

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/darasahq/darasa/core"
)

// Roles
const (
	RoleApplicant = "applicant"
	RoleStudent   = "student"
	RoleMentor    = "mentor"
	RoleAdmin     = "admin"
)

var (
	AllRoles = []string{RoleApplicant, RoleStudent, RoleMentor, RoleAdmin}

	rolePriorities = map[string]int{
		RoleAdmin:     30,
		RoleMentor:    20,
		RoleStudent:   10,
		RoleApplicant: 1,
	}
)

func RolePriority(role string) int {
	return rolePriorities[role]
}

// TrackAssignment binds a mentor to a track, optionally scoped to a single
// cohort; a nil CohortID means "all cohorts".
type TrackAssignment struct {
	CohortID *primitive.ObjectID `json:"cohort_id,omitempty" bson:"cohort_id,omitempty"`
	TrackID  string              `json:"track_id" bson:"track_id"`
	IsActive bool                `json:"is_active" bson:"is_active"`
}

type User struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name              string             `json:"name" bson:"name"`
	Email             string             `json:"email" bson:"email"`
	Phone             string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Role              string             `json:"role" bson:"role"`
	IsActive          bool               `json:"is_active" bson:"is_active"`
	IsPasswordDefault bool               `json:"is_password_default" bson:"is_password_default"`
	PasswordHash      []byte             `json:"-" bson:"password_hash"`
	TrackAssignments  []TrackAssignment  `json:"track_assignments,omitempty" bson:"track_assignments,omitempty"`
	// AssignedTracks is the legacy flat shape; read-only, reconciled by
	// activeTrackPairs and persisted away by `admin migratetracks`.
	AssignedTracks []string  `json:"-" bson:"assigned_tracks,omitempty"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"` // UTC
	LastLogin      time.Time `json:"last_login" bson:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool     { return u.Role == RoleAdmin }
func (u *User) IsMentor() bool    { return u.Role == RoleMentor }
func (u *User) IsStudent() bool   { return u.Role == RoleStudent }
func (u *User) IsApplicant() bool { return u.Role == RoleApplicant }

// IsStaff reports whether the user may act on review workflows.
func (u *User) IsStaff() bool { return u.IsAdmin() || u.IsMentor() }

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string            `json:"name" validate:"required"`
	Email           string            `json:"email" validate:"required,email"`
	Phone           string            `json:"phone" validate:"omitempty,min=7,max=20"`
	Role            string            `json:"role" validate:"required,userrole"`
	Password        string            `json:"password" validate:"required"`
	PasswordConfirm string            `json:"password_confirm" validate:"required,eqfield=Password"`
	Assignments     []TrackAssignment `json:"track_assignments" validate:"omitempty,dive"`
}

func (nu *NewUser) Validate(svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := core.Validate.Struct(nu); err != nil {
		return err
	}
	if err := validatePassword(nu.Password, nu.Name, nu.Email); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name        string             `json:"name"`
	Email       string             `json:"email" validate:"omitempty,email"`
	Phone       string             `json:"phone" validate:"omitempty,min=7,max=20"`
	Role        string             `json:"role" validate:"omitempty,userrole"`
	IsActive    *bool              `json:"is_active"`
	Assignments *[]TrackAssignment `json:"track_assignments" validate:"omitempty,dive"`
}

func (uu *UpdateUser) Validate(origUsr User, svc *Service) error {
	uu.Name = core.CleanString(uu.Name)
	if uu.Name == "" {
		uu.Name = origUsr.Name
	}

	email := core.CleanString(uu.Email, true /* lower */)
	if email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if err := core.Validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(uu.Email, origUsr)
}

type ChangePassword struct {
	OldPassword     string `json:"old_password" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (cp ChangePassword) Validate(usr User) error {
	if err := core.Validate.Struct(cp); err != nil {
		return err
	}
	return validatePassword(cp.Password, usr.Name, usr.Email)
}

type ResetUserPassword struct {
	Token           string `json:"token" validate:"required"`
	UID             string `json:"uid" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate() error { return core.Validate.Struct(rp) }

type QueryFilter struct {
	Search      string    `query:"search"`
	Role        string    `query:"role"`
	TrackID     string    `query:"track_id"`
	IsActive    *bool     `query:"is_active"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Role == "" && qf.TrackID == "" &&
		qf.IsActive == nil && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role, true /* lower */)
}
