// Package validation holds the form schemas applied before account, session,
// post and profile operations run.
package validation

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Validation limits.
const (
	MinPasswordLength = 8
	MinNameLength     = 2
	MinUsernameLength = 2
	MinCaptionLength  = 5
	MaxCaptionLength  = 2200
	MinLocationLength = 1
	MaxLocationLength = 1000
	MaxBioLength      = 2200
	MaxEmailLength    = 254
)

// Field messages shown next to the offending input.
const (
	MsgInvalidEmail     = "Invalid email address"
	MsgPasswordTooShort = "Password must be at least 8 characters."
	MsgNameTooShort     = "Name must be at least 2 characters."
	MsgUsernameTooShort = "Username must be at least 2 characters."
	MsgCaptionTooShort  = "Caption must be at least 5 characters."
	MsgCaptionTooLong   = "Caption must be at most 2200 characters."
	MsgLocationEmpty    = "Location is required."
	MsgLocationTooLong  = "Location must be at most 1000 characters."
	MsgBioTooLong       = "Bio must be at most 2200 characters."
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9_'+\-.]*[A-Za-z0-9_+\-]@([A-Za-z0-9][A-Za-z0-9\-]*\.)+[A-Za-z]{2,}$`)

// Errors maps a field name to its first failing message.
type Errors map[string]string

// Error implements error so a failed schema can travel up a call chain.
func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation passed"
	}
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Err returns nil when there are no failures.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e Errors) add(field, msg string) {
	if _, exists := e[field]; !exists {
		e[field] = msg
	}
}

// IsEmail reports whether s is a well-formed email address.
func IsEmail(s string) bool {
	if s == "" || len(s) > MaxEmailLength {
		return false
	}
	if strings.HasPrefix(s, ".") || strings.Contains(s, "..") {
		return false
	}
	return emailPattern.MatchString(s)
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}

// Signin is the sign-in form.
type Signin struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate applies the sign-in schema.
func (f Signin) Validate() Errors {
	errs := Errors{}
	if !IsEmail(f.Email) {
		errs.add("email", MsgInvalidEmail)
	}
	if length(f.Password) < MinPasswordLength {
		errs.add("password", MsgPasswordTooShort)
	}
	return errs
}

// Signup is the account creation form.
type Signup struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate applies the sign-up schema.
func (f Signup) Validate() Errors {
	errs := Errors{}
	if length(f.Name) < MinNameLength {
		errs.add("name", MsgNameTooShort)
	}
	if length(f.Username) < MinUsernameLength {
		errs.add("username", MsgUsernameTooShort)
	}
	if !IsEmail(f.Email) {
		errs.add("email", MsgInvalidEmail)
	}
	if length(f.Password) < MinPasswordLength {
		errs.add("password", MsgPasswordTooShort)
	}
	return errs
}

// Post is the create and edit post form. Tags are the raw comma separated input.
type Post struct {
	Caption  string `json:"caption"`
	Location string `json:"location"`
	Tags     string `json:"tags"`
}

// Validate applies the post schema.
func (f Post) Validate() Errors {
	errs := Errors{}
	switch n := length(f.Caption); {
	case n < MinCaptionLength:
		errs.add("caption", MsgCaptionTooShort)
	case n > MaxCaptionLength:
		errs.add("caption", MsgCaptionTooLong)
	}
	switch n := length(f.Location); {
	case n < MinLocationLength:
		errs.add("location", MsgLocationEmpty)
	case n > MaxLocationLength:
		errs.add("location", MsgLocationTooLong)
	}
	return errs
}

// Profile is the edit profile form.
type Profile struct {
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

// Validate applies the profile schema.
func (f Profile) Validate() Errors {
	errs := Errors{}
	if length(f.Name) < MinNameLength {
		errs.add("name", MsgNameTooShort)
	}
	if length(f.Bio) > MaxBioLength {
		errs.add("bio", MsgBioTooLong)
	}
	return errs
}
