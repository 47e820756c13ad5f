package model

import "time"

// User represents a member of the privilege program
type User struct {
	ID          int64      `db:"id" json:"id"`
	Firstname   string     `db:"firstname" json:"firstname"`
	Lastname    string     `db:"lastname" json:"lastname"`
	Mobile      string     `db:"mobile" json:"mobile"`
	Email       string     `db:"email" json:"email"`
	Birthday    *time.Time `db:"birthday" json:"birthday,omitempty"`
	Nationality string     `db:"nationality" json:"nationality"`
	LineUserID  string     `db:"line_user_id" json:"line_user_id"`
	IsVerified  bool       `db:"is_verified" json:"is_verified"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Fullname joins the first and last name, tolerating either being empty.
func (u *User) Fullname() string {
	switch {
	case u.Firstname == "":
		return u.Lastname
	case u.Lastname == "":
		return u.Firstname
	default:
		return u.Firstname + " " + u.Lastname
	}
}

// Admin is a back-office operator account
type Admin struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// StatusVerified is the member status value set once an email address
// has been confirmed through the OTP flow.
const StatusVerified = 3

// Status tracks a member's onboarding progress as an integer step.
type Status struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Status    int       `db:"status" json:"status"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
