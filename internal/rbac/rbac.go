package rbac

type Role string
type Action string

const (
	RoleAnnotator Role = "annotator"
	RoleAdmin     Role = "admin"
)

const (
	ActionRead     Action = "read"
	ActionAnnotate Action = "annotate"
	ActionSubmit   Action = "submit"
	ActionManage   Action = "manage"
)

// Can reports whether a role is allowed to perform an action. Admins can do
// everything; annotators can read, annotate, and submit their own work but
// never manage projects, tasks, users, or assignments.
func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleAnnotator:
		return action == ActionRead || action == ActionAnnotate || action == ActionSubmit
	default:
		return false
	}
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleAnnotator, RoleAdmin:
		return Role(role)
	default:
		return RoleAnnotator
	}
}
