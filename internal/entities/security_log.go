package entities

// Security event tags.
const (
	SecurityEventRegister      = "register"
	SecurityEventLoginSession  = "login_session"
	SecurityEventLogoutSession = "logout_session"
	SecurityEventLoginJWT      = "login_jwt"
	SecurityEventAccountLocked = "account_locked"
	SecurityEventCSRFFailure   = "csrf_failure"
	SecurityEventAccessDenied  = "access_denied"
)

// Failure reasons recorded alongside unsuccessful events.
const (
	ReasonNotFound      = "not_found"
	ReasonBadPassword   = "bad_password"
	ReasonLocked        = "locked"
	ReasonEmailExists   = "email_exists"
	ReasonInvalidTicket = "invalid_ticket"
	ReasonWrongRole     = "wrong_role"
)

// SecurityLogEntry is an append-only record of an authentication-relevant event.
type SecurityLogEntry struct {
	ID          string  `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt   int64   `gorm:"autoCreateTime:milli;index;not null" json:"created_at"` // unix milliseconds
	SourceIP    string  `gorm:"column:ip;size:45" json:"ip"`
	RequestPath string  `gorm:"column:path;size:512" json:"path"`
	Event       string  `gorm:"size:50;not null" json:"event"`
	Email       *string `gorm:"size:256" json:"email"`
	UserID      *string `gorm:"size:36" json:"user_id"`
	Success     bool    `json:"success"`
	Reason      *string `gorm:"size:100" json:"reason"`
}

func (SecurityLogEntry) TableName() string {
	return "security_logs"
}
