package rewards

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"

	"bookbuddy/internal/validation"
)

// Grade levels run from kindergarten (0) to 12
const (
	MinGradeLevel = 0
	MaxGradeLevel = 12
)

// AvatarColors is the palette offered for child avatars
var AvatarColors = []string{"#4CAF50", "#2196F3", "#FF9800", "#9C27B0", "#F44336", "#00BCD4"}

// ParseGradeLevel accepts "K" (any case) or a number between 0 and 12
func ParseGradeLevel(input string) (int, error) {
	s := strings.TrimSpace(input)
	if strings.EqualFold(s, "K") {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < MinGradeLevel || n > MaxGradeLevel {
		return 0, validation.ValidationError{Field: "grade_level", Message: "grade level must be K or 1-12"}
	}
	return n, nil
}

// FormatGradeLevel renders 0 as "K" and other grades as digits
func FormatGradeLevel(level int) string {
	if level == 0 {
		return "K"
	}
	return strconv.Itoa(level)
}

// ValidateAvatarColor checks that color is part of the palette
func ValidateAvatarColor(color string) error {
	for _, c := range AvatarColors {
		if strings.EqualFold(c, color) {
			return nil
		}
	}
	return validation.ValidationError{Field: "avatar_color", Message: "unknown avatar color"}
}

// RandomAvatarColor picks a palette entry
func RandomAvatarColor() string {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(AvatarColors))))
	if err != nil {
		return AvatarColors[0]
	}
	return AvatarColors[n.Int64()]
}
