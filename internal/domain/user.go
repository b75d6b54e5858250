package domain

import "time"

// UserType distinguishes the two application roles.
type UserType string

const (
	UserAdmin  UserType = "admin"
	UserWorker UserType = "trabajador"
)

// User is an account that can log in: an admin or a worker.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"usuario"`
	Name         string    `json:"nombre"`
	Description  string    `json:"descripcion,omitempty"`
	ProfilePhoto string    `json:"foto_perfil,omitempty"`
	Type         UserType  `json:"tipo"`
	Active       bool      `json:"activo"`
	CreatedAt    time.Time `json:"fecha_creacion,omitempty"`
}

// IsAdmin reports whether the user may perform admin-only actions
// (approve, return, cancel, mark paid, manage workers and clients).
func (u *User) IsAdmin() bool { return u.Type == UserAdmin }
