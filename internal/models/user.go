package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleAdmin   UserRole = "admin"
	RoleStaff   UserRole = "staff"
)

// UserStatus represents the lifecycle state of an account.
type UserStatus string

const (
	StatusActive    UserStatus = "active"
	StatusInactive  UserStatus = "inactive"
	StatusSuspended UserStatus = "suspended"
)

// SeniorYear is the academic year from which a student counts as senior.
const SeniorYear = 3

// User represents a campus account stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	StudentID    string     `db:"student_id" json:"studentId"`
	Department   string     `db:"department" json:"department"`
	Year         int        `db:"year" json:"year"`
	Phone        string     `db:"phone" json:"phone"`
	Role         UserRole   `db:"role" json:"role"`
	Status       UserStatus `db:"status" json:"status"`
	Avatar       string     `db:"avatar" json:"avatar"`
	IsVerified   bool       `db:"is_verified" json:"isVerified"`
	LastLogin    *time.Time `db:"last_login" json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// IsSenior reports whether the user may share books. Seniority is always
// derived from the academic year, never stored.
func (u *User) IsSenior() bool {
	return u.Year >= SeniorYear
}

// PublicProfile is the subset of user fields attached to shared resources.
type PublicProfile struct {
	ID         string `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	Email      string `db:"email" json:"email"`
	Department string `db:"department" json:"department,omitempty"`
	Year       int    `db:"year" json:"year,omitempty"`
	Phone      string `db:"phone" json:"phone,omitempty"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role       *UserRole
	Status     *UserStatus
	Department string
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
}

// UpdateProfileRequest is the payload for PUT /auth/profile.
type UpdateProfileRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=2,max=50"`
	Department *string `json:"department" validate:"omitempty,min=1"`
	Year       *int    `json:"year" validate:"omitempty,min=1,max=4"`
	Phone      *string `json:"phone" validate:"omitempty,len=10,numeric"`
	Avatar     *string `json:"avatar" validate:"omitempty,url"`
}

// UpdateUserRequest is the admin payload for PUT /users/:id.
type UpdateUserRequest struct {
	Name       *string     `json:"name" validate:"omitempty,min=2,max=50"`
	Department *string     `json:"department" validate:"omitempty,min=1"`
	Year       *int        `json:"year" validate:"omitempty,min=1,max=4"`
	Phone      *string     `json:"phone" validate:"omitempty,len=10,numeric"`
	Role       *UserRole   `json:"role" validate:"omitempty,oneof=student admin staff"`
	Status     *UserStatus `json:"status" validate:"omitempty,oneof=active inactive suspended"`
}
