package team

// TeamMember is a person tracked by the application. Birthday is kept in its
// raw "YYYY-MM-DD" form; parseability is validated by the consumers that
// derive calendar entries from it, and an empty string means unknown.
type TeamMember struct {
	ID       int
	Name     string
	Email    string
	Role     string
	Birthday string
}
