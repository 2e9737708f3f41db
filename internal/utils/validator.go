package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const DateLayout = "2006-01-02"

var validate = validator.New()

func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("email is empty")
	}
	if err := validate.Var(email, "email"); err != nil {
		return fmt.Errorf("invalid email %q", email)
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD filter value in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be formatted as %s", DateLayout)
	}
	return t, nil
}
