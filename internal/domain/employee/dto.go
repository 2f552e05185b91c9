package employee

type EmployeeFilter struct {
	DepartmentID *string
}

// IDs returns the employee IDs in directory order.
func IDs(employees []Employee) []string {
	ids := make([]string, len(employees))
	for i, e := range employees {
		ids[i] = e.ID
	}
	return ids
}
