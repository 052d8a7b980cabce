package user

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/chapter"
)

type Role string

// Roles
const (
	RoleAdmin Role = "Administrador"
	RoleTutor Role = "Tutor"
	RoleTutee Role = "Tutorado"
)

var AllRoles = []Role{RoleAdmin, RoleTutor, RoleTutee}

func (r Role) IsValid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID                  string          `json:"id"`
	FirstName           string          `json:"first_name"`
	LastName            string          `json:"last_name"`
	Email               string          `json:"email"`
	Chapter             chapter.Chapter `json:"chapter"`
	Role                Role            `json:"role"`
	ActiveTutoringLimit int             `json:"active_tutoring_limit"`
	IsActive            bool            `json:"is_active"`
	PasswordHash        []byte          `json:"-"`
	CreatedAt           time.Time       `json:"created_at"` // UTC
	UpdatedAt           time.Time       `json:"updated_at"` // UTC
	LastLogin           time.Time       `json:"last_login"` // UTC
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

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
func (u User) IsTutor() bool { return u.Role == RoleTutor }
func (u User) IsTutee() bool { return u.Role == RoleTutee }

// NewUser contains information needed to create a new User.
// New users always start as RoleTutee with no active tutoring allowance.
type NewUser struct {
	FirstName       string `json:"first_name" validate:"required,max=100"`
	LastName        string `json:"last_name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email"`
	ChapterID       string `json:"chapter_id" validate:"required"`
	Password        string `json:"password" validate:"omitempty"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc Service) error {
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.ChapterID = core.CleanString(nu.ChapterID)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(nu.Email)
}

type UpdateRole struct {
	Role Role `json:"role" validate:"required,userrole"`
}

func (ur *UpdateRole) Validate(validate *validator.Validate) error {
	ur.Role = Role(core.CleanString(string(ur.Role)))
	return validate.Struct(ur)
}

type UpdateTutoringLimit struct {
	Limit *int `json:"active_tutoring_limit" validate:"required,min=0"`
}

func (ul UpdateTutoringLimit) Validate(validate *validator.Validate) error {
	return validate.Struct(ul)
}

type GetFilter struct {
	ID    string
	Email string
}

type QueryFilter struct {
	Search    string   `query:"search"`
	Roles     []string `query:"role"`
	ChapterID string   `query:"chapter_id"`
	IsActive  *bool    `query:"-"`
	IDs       []string `query:"-"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.ChapterID == "" && qf.IsActive == nil && qf.IDs == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.ChapterID = core.CleanString(qf.ChapterID)
}
