package models

import "time"

// Student represents a learner registered in the department. Level selects the fee band.
type Student struct {
	ID        string    `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	Level     int       `db:"level" json:"level"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name.
func (s Student) FullName() string {
	return joinName(s.FirstName, s.LastName)
}

// StudentWithBalance adds the computed fee position to a student row.
type StudentWithBalance struct {
	Student
	TotalDue    float64 `db:"total_due" json:"total_due"`
	TotalPaid   float64 `db:"total_paid" json:"total_paid"`
	Outstanding float64 `db:"outstanding" json:"outstanding"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Level     int
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Lecturer represents a member of teaching staff.
type Lecturer struct {
	ID         string    `db:"id" json:"id"`
	FirstName  string    `db:"first_name" json:"first_name"`
	LastName   string    `db:"last_name" json:"last_name"`
	Email      string    `db:"email" json:"email"`
	Department string    `db:"department" json:"department"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name.
func (l Lecturer) FullName() string {
	return joinName(l.FirstName, l.LastName)
}

// LecturerFilter scopes lecturer listings.
type LecturerFilter struct {
	Search     string
	Department string
	Page       int
	PageSize   int
}
