package models

// Role is the role a user holds in the school
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// IsValid reports whether r is one of the known roles
func (r Role) IsValid() bool {
	return r == RoleStudent || r == RoleTeacher
}

// RequestStatus is the lifecycle state of an enrollment request
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// IsDecision reports whether s is a terminal status a teacher can choose
func (s RequestStatus) IsDecision() bool {
	return s == RequestApproved || s == RequestRejected
}
