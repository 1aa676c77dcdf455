package rewards

import (
	"time"

	"bookbuddy/internal/models"
)

// Milestone is one entry of the fixed achievement catalog
type Milestone struct {
	Threshold   int    `json:"threshold"`
	Type        string `json:"achievement_type"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Catalog is ordered by ascending threshold
var Catalog = []Milestone{
	{Threshold: 1, Type: "first_book", Title: "First Book!", Description: "Read your first book"},
	{Threshold: 5, Type: "milestone_5", Title: "Reading Rookie", Description: "Read 5 books"},
	{Threshold: 10, Type: "milestone_10", Title: "Page Turner", Description: "Read 10 books"},
	{Threshold: 25, Type: "milestone_25", Title: "Book Worm", Description: "Read 25 books"},
	{Threshold: 50, Type: "milestone_50", Title: "Reading Master", Description: "Read 50 books"},
	{Threshold: 100, Type: "milestone_100", Title: "Book Legend", Description: "Read 100 books!"},
}

// Evaluate returns the achievements a child has earned at approvedCount
// that are not already in granted, in ascending threshold order.
// It does not persist anything.
func Evaluate(childID int64, approvedCount int, granted map[string]bool) []models.Achievement {
	now := time.Now()
	var earned []models.Achievement
	for _, m := range Catalog {
		if m.Threshold > approvedCount {
			break
		}
		if granted[m.Type] {
			continue
		}
		earned = append(earned, models.Achievement{
			ChildID:         childID,
			AchievementType: m.Type,
			Title:           m.Title,
			Description:     m.Description,
			EarnedAt:        now,
		})
	}
	return earned
}

// NextMilestone returns the first catalog entry above approvedCount, if any
func NextMilestone(approvedCount int) (Milestone, bool) {
	for _, m := range Catalog {
		if m.Threshold > approvedCount {
			return m, true
		}
	}
	return Milestone{}, false
}
