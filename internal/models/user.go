// internal/models/user.go
package models

import "time"

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleCustomer Role = "CUSTOMER"
	RoleSeller   Role = "SELLER"
)

// User is the authenticated account as returned by the remote service.
type User struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      Role      `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is the login result: a bearer token plus account hints.
type TokenResponse struct {
	Token      string `json:"token"`
	FirstLogin bool   `json:"firstLogin"`
	Username   string `json:"username"`
	Role       Role   `json:"role"`
}
