package domain

// SubjectType differentiates the callers a token can be issued to.
type SubjectType string

const (
	SubjectTypeService SubjectType = "SERVICE"
	SubjectTypeAuditor SubjectType = "AUDITOR"
)
