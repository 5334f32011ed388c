package entity

type UserRole string

const (
	RoleStudent     UserRole = "student"
	RoleDriver      UserRole = "driver"
	RoleCoordinator UserRole = "coordinator"
	RoleAdmin       UserRole = "admin"
)

type User struct {
	Base
	Name         string   `db:"name"`
	Email        string   `db:"email"`
	PasswordHash string   `db:"password"`
	Role         UserRole `db:"role"`
	IsActive     bool     `db:"is_active"`
}
