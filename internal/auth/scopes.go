package auth

// Scopes accepted by the monitor API.
const (
	ScopeSedentaryRead  = "sedentary:read"
	ScopeSedentaryWrite = "sedentary:write"
)
