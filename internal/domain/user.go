package domain

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// emailPattern is a simple email validation pattern
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// User is an author account. Readers are anonymous and have no account.
type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email,omitempty" db:"email"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never expose
	IsActive     bool      `json:"is_active" db:"is_active"`
	IsStaff      bool      `json:"is_staff" db:"is_staff"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Validate validates the user fields
func (u *User) Validate() error {
	fields := map[string]string{}
	if len(u.Username) < 3 || len(u.Username) > 150 {
		fields["username"] = "username must be between 3 and 150 characters"
	}
	if u.Email != "" && !emailPattern.MatchString(u.Email) {
		fields["email"] = "invalid email format"
	}
	if u.PasswordHash == "" {
		fields["password"] = "password is required"
	}
	if len(fields) > 0 {
		return &ValidationErrors{Fields: fields}
	}
	return nil
}

// AsAuthor returns the public author view of the user
func (u *User) AsAuthor() *Author {
	return &Author{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: AuthorDisplay(u.FirstName, u.LastName, u.Username),
		IsStaff:     u.IsStaff,
		CreatedAt:   u.CreatedAt,
	}
}

// Actor is the authenticated caller of the authoring API
type Actor struct {
	UserID   string
	Username string
	IsStaff  bool
}

// CanEdit reports whether the actor may modify post. Staff may modify any
// post, other authors only their own.
func (a *Actor) CanEdit(post *Post) bool {
	if a == nil || post == nil {
		return false
	}
	if a.IsStaff {
		return true
	}
	return post.Author != nil && post.Author.ID == a.UserID
}

// Author is the public projection of a post's author
type Author struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"-"`
	LastName  string `json:"-"`
}

// Display returns the author's display name
func (a *Author) Display() string {
	if a == nil {
		return ""
	}
	return AuthorDisplay(a.FirstName, a.LastName, a.Username)
}

// MarshalJSON adds the computed display name
func (a Author) MarshalJSON() ([]byte, error) {
	type plain Author
	return json.Marshal(struct {
		plain
		Display string `json:"display"`
	}{plain(a), a.Display()})
}

// AuthorDisplay prefers the full name. Otherwise the username is prettified:
// "mike_thomas" and "mike.thomas" become "Mike Thomas".
func AuthorDisplay(firstName, lastName, username string) string {
	full := strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName))
	if full != "" {
		return full
	}

	pretty := strings.NewReplacer("_", " ", ".", " ").Replace(username)
	pretty = strings.TrimSpace(titleCase(pretty))
	if pretty != "" {
		return pretty
	}
	return username
}

// titleCase upper-cases the first letter of every word and lower-cases the rest
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		prevLetter = false
		b.WriteRune(r)
	}
	return b.String()
}

// UserCreateRequest represents an author account creation
type UserCreateRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=150"`
	Email     string `json:"email" validate:"omitempty,email"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	Password  string `json:"password" validate:"required,min=8"`
	IsStaff   bool   `json:"is_staff"`
}

// UserLoginRequest represents a user login request
type UserLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// UserResponse represents a safe user response (without sensitive data)
type UserResponse struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	IsStaff     bool      `json:"is_staff"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuthTokens represents authentication tokens
type AuthTokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	User   *UserResponse `json:"user"`
	Tokens *AuthTokens   `json:"tokens"`
}
