package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"bookbuddy/internal/database"
	"bookbuddy/internal/models"
	"bookbuddy/internal/repository"

	"gopkg.in/yaml.v3"
)

// Backup formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// BackupData represents the complete database export. Password hashes and
// OAuth subjects are never included.
type BackupData struct {
	Version      string               `json:"version" yaml:"version"`
	ExportedAt   time.Time            `json:"exported_at" yaml:"exported_at"`
	Parents      []models.Parent      `json:"parents" yaml:"parents"`
	Children     []models.Child       `json:"children" yaml:"children"`
	Policies     []PolicyBackup       `json:"reward_policies" yaml:"reward_policies"`
	Books        []BookBackup         `json:"books" yaml:"books"`
	Achievements []models.Achievement `json:"achievements" yaml:"achievements"`
	Prizes       []PrizeBackup        `json:"prizes" yaml:"prizes"`
}

// PolicyBackup is a reward policy row
type PolicyBackup struct {
	ChildID         int64   `json:"child_id" yaml:"child_id"`
	RewardType      string  `json:"reward_type" yaml:"reward_type"`
	AmountPerBook   float64 `json:"amount_per_book" yaml:"amount_per_book"`
	PayoutThreshold float64 `json:"payout_threshold" yaml:"payout_threshold"`
}

// BookBackup is a book row
type BookBackup struct {
	ID            int64      `json:"id" yaml:"id"`
	ChildID       int64      `json:"child_id" yaml:"child_id"`
	Title         string     `json:"title" yaml:"title"`
	Author        string     `json:"author" yaml:"author"`
	Summary       string     `json:"summary" yaml:"summary"`
	CoverURL      string     `json:"cover_url,omitempty" yaml:"cover_url,omitempty"`
	ReadingLevel  string     `json:"reading_level,omitempty" yaml:"reading_level,omitempty"`
	InterestLevel string     `json:"interest_level,omitempty" yaml:"interest_level,omitempty"`
	Status        string     `json:"status" yaml:"status"`
	SubmittedAt   time.Time  `json:"submitted_at" yaml:"submitted_at"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty" yaml:"approved_at,omitempty"`
}

// PrizeBackup is a prize row
type PrizeBackup struct {
	ID             int64  `json:"id" yaml:"id"`
	ParentID       int64  `json:"parent_id" yaml:"parent_id"`
	ChildID        *int64 `json:"child_id,omitempty" yaml:"child_id,omitempty"`
	Name           string `json:"name" yaml:"name"`
	Description    string `json:"description" yaml:"description"`
	PointsRequired int    `json:"points_required" yaml:"points_required"`
	IsRedeemed     bool   `json:"is_redeemed" yaml:"is_redeemed"`
}

// BackupService handles database exports
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Collect reads every table into a BackupData
func (s *BackupService) Collect() (*BackupData, error) {
	backup := &BackupData{
		Version:    "1.0",
		ExportedAt: time.Now(),
	}

	var err error
	if backup.Parents, err = repository.NewParentRepository(s.db).ListParents(); err != nil {
		return nil, fmt.Errorf("failed to export parents: %w", err)
	}
	if backup.Children, err = repository.NewChildRepository(s.db).ListAll(); err != nil {
		return nil, fmt.Errorf("failed to export children: %w", err)
	}

	policies, err := repository.NewPolicyRepository(s.db).ListAll()
	if err != nil {
		return nil, fmt.Errorf("failed to export reward policies: %w", err)
	}
	for _, p := range policies {
		backup.Policies = append(backup.Policies, PolicyBackup{
			ChildID:         p.ChildID,
			RewardType:      p.RewardType,
			AmountPerBook:   p.AmountPerBook,
			PayoutThreshold: p.PayoutThreshold,
		})
	}

	books, err := repository.NewBookRepository(s.db).ListAll()
	if err != nil {
		return nil, fmt.Errorf("failed to export books: %w", err)
	}
	for _, b := range books {
		backup.Books = append(backup.Books, BookBackup{
			ID:            b.ID,
			ChildID:       b.ChildID,
			Title:         b.Title,
			Author:        b.Author,
			Summary:       b.Summary,
			CoverURL:      b.CoverURL,
			ReadingLevel:  b.ReadingLevel,
			InterestLevel: b.InterestLevel,
			Status:        string(b.Status),
			SubmittedAt:   b.SubmittedAt,
			ApprovedAt:    b.ApprovedAt,
		})
	}

	if backup.Achievements, err = repository.NewAchievementRepository(s.db).ListAll(); err != nil {
		return nil, fmt.Errorf("failed to export achievements: %w", err)
	}

	prizes, err := repository.NewPrizeRepository(s.db).ListAll()
	if err != nil {
		return nil, fmt.Errorf("failed to export prizes: %w", err)
	}
	for _, p := range prizes {
		backup.Prizes = append(backup.Prizes, PrizeBackup{
			ID:             p.ID,
			ParentID:       p.ParentID,
			ChildID:        p.ChildID,
			Name:           p.Name,
			Description:    p.Description,
			PointsRequired: p.PointsRequired,
			IsRedeemed:     p.IsRedeemed,
		})
	}

	return backup, nil
}

// Export writes a backup file in the given format
func (s *BackupService) Export(outputPath, format string) error {
	log.Println("Starting database export...")

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	backup, err := s.exportTo(file, format)
	if err != nil {
		return err
	}

	log.Printf("Database exported successfully to %s", outputPath)
	log.Printf("Exported: %d parents, %d children, %d policies, %d books, %d achievements, %d prizes",
		len(backup.Parents), len(backup.Children), len(backup.Policies),
		len(backup.Books), len(backup.Achievements), len(backup.Prizes))
	return nil
}

// ExportToWriter writes a backup to w in the given format
func (s *BackupService) ExportToWriter(w io.Writer, format string) error {
	_, err := s.exportTo(w, format)
	return err
}

func (s *BackupService) exportTo(w io.Writer, format string) (*BackupData, error) {
	backup, err := s.Collect()
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatJSON, "":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		err = encoder.Encode(backup)
	case FormatYAML, "yml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		err = encoder.Encode(backup)
		if err == nil {
			err = encoder.Close()
		}
	default:
		return nil, fmt.Errorf("unsupported backup format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	return backup, nil
}
