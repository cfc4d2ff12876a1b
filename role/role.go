package role

type Role string

const (
	Admin Role = "admin"
	Staff Role = "staff"
)

func (r Role) Valid() bool {
	return r == Admin || r == Staff
}

// Title is the capitalised name used in user-facing messages ("Admin", "Staff").
func (r Role) Title() string {
	switch r {
	case Admin:
		return "Admin"
	case Staff:
		return "Staff"
	}
	return string(r)
}
