package domain

// User is the account returned by the backend after OTP login or signup.
type User struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Age        int    `json:"age"`
	Gender     string `json:"gender"`
	Phone      string `json:"phone"`
	Email      string `json:"email,omitempty"`
	IsVerified bool   `json:"is_verified,omitempty"`
}

// LocalPhone returns the phone number without the +91 country prefix.
func (u *User) LocalPhone() string {
	if u == nil {
		return ""
	}
	const prefix = "+91"
	if len(u.Phone) > len(prefix) && u.Phone[:len(prefix)] == prefix {
		return u.Phone[len(prefix):]
	}
	return u.Phone
}
