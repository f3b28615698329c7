package utils

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// GTFS IDs are free-form text, so spaces and slashes are allowed.
// Markup and quote characters are not.
const invalidIDRunes = `<>"'\`

// Detect HTML/script tags
var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// ValidateID validates that an ID is safe and within reasonable limits
func ValidateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}

	if len(id) > 100 {
		return errors.New("id too long (max 100 characters)")
	}

	if !utf8.ValidString(id) {
		return errors.New("id contains invalid characters")
	}
	for _, r := range id {
		if unicode.IsControl(r) || strings.ContainsRune(invalidIDRunes, r) {
			return errors.New("id contains invalid characters")
		}
	}

	return nil
}

// ValidateDirectionID accepts the GTFS direction values. Empty matches trips without one.
func ValidateDirectionID(direction string) error {
	switch direction {
	case "", "0", "1":
		return nil
	default:
		return errors.New("direction_id must be 0 or 1")
	}
}

// ValidateDate validates date strings in YYYY-MM-DD format
func ValidateDate(date string) error {
	// Empty dates are allowed (will default to current date)
	if date == "" {
		return nil
	}

	_, err := time.Parse("2006-01-02", date)
	if err != nil {
		return errors.New("invalid date format, use YYYY-MM-DD")
	}

	return nil
}

// SanitizeInput removes HTML tags and other potentially dangerous content
func SanitizeInput(input string) string {
	sanitized := htmlTagPattern.ReplaceAllString(input, "")
	return strings.TrimSpace(sanitized)
}

// ValidateDepartureQuery validates the parameters of an ad-hoc departure query
func ValidateDepartureQuery(routeID, directionID, stopID string) map[string][]string {
	fieldErrors := make(map[string][]string)

	if err := ValidateID(routeID); err != nil {
		fieldErrors["route_id"] = append(fieldErrors["route_id"], err.Error())
	}

	if err := ValidateDirectionID(directionID); err != nil {
		fieldErrors["direction_id"] = append(fieldErrors["direction_id"], err.Error())
	}

	if err := ValidateID(stopID); err != nil {
		fieldErrors["stop_id"] = append(fieldErrors["stop_id"], err.Error())
	}

	return fieldErrors
}
