package utils

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ==================== UUID & TOKEN ====================

func GenerateSessionToken() uuid.UUID {
	return uuid.New()
}

// ==================== DISCOUNT CODE ====================

// GenerateDiscountCode derives the SVD code for a visit: prefix plus the first
// eight characters of the visit id, uppercased. The same visit always yields
// the same code.
func GenerateDiscountCode(prefix string, visitID uuid.UUID) string {
	return prefix + strings.ToUpper(visitID.String()[:8])
}

// ==================== PARSING ====================

// ParseInt converts string to int with default value
func ParseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}

	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	if result < 1 {
		return defaultValue
	}

	return result
}
