package employee

import "time"

// Employee is read from the directory; attendance never writes it.
type Employee struct {
	ID           string
	Name         string
	Email        string
	DepartmentID *string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// DTO / Join
	DepartmentName *string
}

type Department struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
