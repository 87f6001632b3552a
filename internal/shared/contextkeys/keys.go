package contextkeys

// contextKey is an unexported type to prevent collisions with context keys defined in
// other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "evconnect context key " + string(c)
}

const (
	// UserIDKey holds the authenticated user's hex ObjectID.
	UserIDKey = contextKey("userID")
	// UserEmailKey holds the authenticated user's email.
	UserEmailKey = contextKey("userEmail")
	// TokenKey holds the raw session token the request was authenticated with.
	TokenKey = contextKey("token")
	// RequestIDKey is set by the requestid middleware.
	RequestIDKey = contextKey("requestID")
	ComponentKey = contextKey("component")
	OperationKey = contextKey("operation")
)
