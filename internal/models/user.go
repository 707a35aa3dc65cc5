package models

// Role represents the authorization role of a user.
const (
	RoleStudent    = "student"    // Enrolled learner, may browse and submit tasks
	RoleInstructor = "instructor" // Course owner, may grade and manage tasks
	RoleAdmin      = "admin"      // Platform administrator

	// RoleGuest is the role reported for an unauthenticated session.
	// It is never stored on a User record.
	RoleGuest = "guest"
)

// User is the profile record returned by the courseware API.
// A session holds at most one User, and only while authenticated.
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName"`
}

// KnownRole returns true if the role is one the platform defines.
func KnownRole(role string) bool {
	switch role {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}
