package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"bookbuddy/internal/bookinfo"
	"bookbuddy/internal/database"
	"bookbuddy/internal/lock"
	"bookbuddy/internal/models"
	"bookbuddy/internal/repository"
	"bookbuddy/internal/rewards"
	"bookbuddy/internal/validation"
)

// SubmitInput is what a child enters after finishing a book
type SubmitInput struct {
	Title   string `json:"title"`
	Author  string `json:"author"`
	Summary string `json:"summary"`
}

// ApprovalResult reports the effects of an approval
type ApprovalResult struct {
	Book            *models.Book         `json:"book"`
	NewAchievements []models.Achievement `json:"new_achievements"`
	Policy          *rewards.Policy      `json:"reward_settings,omitempty"`
	Accrual         *rewards.Accrual     `json:"accrual,omitempty"`
}

// ChildSummary is the progress view for one child
type ChildSummary struct {
	Child         *models.Child        `json:"child"`
	GradeLabel    string               `json:"grade_label"`
	Policy        rewards.Policy       `json:"reward_settings"`
	Counts        BookCounts           `json:"book_counts"`
	Accrual       rewards.Accrual      `json:"accrual"`
	Progress      float64              `json:"progress_percent"`
	EarnedLabel   string               `json:"earned_label"`
	GoalLabel     string               `json:"goal_label"`
	Achievements  []models.Achievement `json:"achievements"`
	NextMilestone *rewards.Milestone   `json:"next_milestone,omitempty"`
}

// BookCounts is the JSON form of a child's per-status counts
type BookCounts struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Pending  int `json:"pending"`
	Rejected int `json:"rejected"`
}

// BookService runs book submission, review and achievement reconciliation
type BookService struct {
	childRepo       *repository.ChildRepository
	bookRepo        *repository.BookRepository
	policyRepo      *repository.PolicyRepository
	achievementRepo *repository.AchievementRepository
	parentRepo      *repository.ParentRepository
	lookup          bookinfo.Lookuper
	locker          lock.Locker
	email           Notifier
	lookupTimeout   time.Duration
}

// NewBookService creates a new book service. lookup and email may be nil.
func NewBookService(db *database.DB, lookup bookinfo.Lookuper, locker lock.Locker, email Notifier, lookupTimeout time.Duration) *BookService {
	if locker == nil {
		locker = lock.NewLocal()
	}
	return &BookService{
		childRepo:       repository.NewChildRepository(db),
		bookRepo:        repository.NewBookRepository(db),
		policyRepo:      repository.NewPolicyRepository(db),
		achievementRepo: repository.NewAchievementRepository(db),
		parentRepo:      repository.NewParentRepository(db),
		lookup:          lookup,
		locker:          locker,
		email:           email,
		lookupTimeout:   lookupTimeout,
	}
}

// ownedBook loads a book and checks that its child belongs to parentID
func (s *BookService) ownedBook(parentID, bookID int64) (*models.Book, *models.Child, error) {
	book, err := s.bookRepo.GetBookByID(bookID)
	if err != nil {
		return nil, nil, unavailable("get book", err)
	}
	if book == nil {
		return nil, nil, ErrBookNotFound
	}
	child, err := ownedChild(s.childRepo, parentID, book.ChildID)
	if errors.Is(err, ErrChildNotFound) {
		return nil, nil, ErrBookNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return book, child, nil
}

func (s *BookService) policyFor(childID int64) (rewards.Policy, error) {
	stored, err := s.policyRepo.GetByChildID(childID)
	if err != nil {
		return rewards.Policy{}, unavailable("get reward policy", err)
	}
	return rewards.PolicyFromModel(stored), nil
}

// Submit records a finished book as pending review. Metadata enrichment
// is best-effort and bounded by the lookup timeout.
func (s *BookService) Submit(ctx context.Context, parentID, childID int64, in SubmitInput) (*models.Book, error) {
	title := strings.TrimSpace(in.Title)
	author := strings.TrimSpace(in.Author)
	summary := strings.TrimSpace(in.Summary)

	fields := []struct {
		field string
		value string
		max   int
	}{
		{"title", title, 200},
		{"author", author, 200},
		{"summary", summary, 5000},
	}
	for _, f := range fields {
		if err := validation.ValidateRequired(f.field, f.value); err != nil {
			return nil, err
		}
		if err := validation.ValidateMaxLength(f.field, f.value, f.max); err != nil {
			return nil, err
		}
	}

	child, err := ownedChild(s.childRepo, parentID, childID)
	if err != nil {
		return nil, err
	}

	info := s.enrich(ctx, title, author)
	book := &models.Book{
		ChildID:       child.ID,
		Title:         title,
		Author:        author,
		Summary:       summary,
		CoverURL:      info.CoverURL,
		ReadingLevel:  info.ReadingLevel,
		InterestLevel: info.InterestLevel,
		Status:        models.BookPending,
		SubmittedAt:   time.Now(),
	}
	if err := s.bookRepo.CreateBook(book); err != nil {
		return nil, unavailable("submit book", err)
	}

	s.notifySubmitted(ctx, parentID, child, book)
	return book, nil
}

func (s *BookService) enrich(ctx context.Context, title, author string) bookinfo.Info {
	if s.lookup == nil {
		return bookinfo.Info{}
	}
	if s.lookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.lookupTimeout)
		defer cancel()
	}
	info, err := s.lookup.Lookup(ctx, title, author)
	if err != nil {
		log.Printf("Warning: book info lookup failed for %q: %v", title, err)
		return bookinfo.Info{}
	}
	return info
}

func (s *BookService) notifySubmitted(ctx context.Context, parentID int64, child *models.Child, book *models.Book) {
	if s.email == nil || !s.email.IsEnabled() {
		return
	}
	parent, err := s.parentRepo.GetParentByID(parentID)
	if err != nil || parent == nil {
		log.Printf("Warning: could not load parent %d for submission email: %v", parentID, err)
		return
	}
	if err := s.email.SendBookSubmittedEmail(ctx, parent.Email, parent.FullName, child.Name, book.Title, book.Author); err != nil {
		log.Printf("Warning: failed to send submission email for book %d: %v", book.ID, err)
	}
}

// GetBook returns one of the parent's books
func (s *BookService) GetBook(parentID, bookID int64) (*models.Book, error) {
	book, _, err := s.ownedBook(parentID, bookID)
	return book, err
}

// VerificationPrompt builds text a parent can paste into a chat assistant to
// judge whether the child's summary shows they read the book
func (s *BookService) VerificationPrompt(parentID, bookID int64) (string, error) {
	book, _, err := s.ownedBook(parentID, bookID)
	if err != nil {
		return "", err
	}
	return verificationPrompt(book), nil
}

func verificationPrompt(book *models.Book) string {
	var b strings.Builder
	b.WriteString("Please evaluate if this book summary written by a child is sufficient and demonstrates they actually read the book:\n\n")
	fmt.Fprintf(&b, "Book Title: \"%s\"\n", book.Title)
	fmt.Fprintf(&b, "Author: %s\n", book.Author)
	if level := strings.TrimSpace(book.ReadingLevel); level != "" {
		fmt.Fprintf(&b, "Reading Level: %s\n", level)
	}
	fmt.Fprintf(&b, "\nChild's Summary:\n\"%s\"\n\n", book.Summary)
	b.WriteString("Please assess:\n")
	b.WriteString("1. Does the summary show the child actually read the book?\n")
	b.WriteString("2. Does it demonstrate comprehension of the main ideas?\n")
	b.WriteString("3. Is it detailed enough for their reading level?\n")
	b.WriteString("4. Any red flags that suggest they didn't read it?\n\n")
	b.WriteString("Provide your assessment and recommendation.")
	return b.String()
}

// Approve moves a pending book to approved, grants any newly reached
// milestones and returns the fresh accrual
func (s *BookService) Approve(ctx context.Context, parentID, bookID int64) (*ApprovalResult, error) {
	book, child, err := s.transition(parentID, bookID, models.BookApproved)
	if err != nil {
		return nil, err
	}

	granted, err := s.ReconcileAchievements(ctx, child.ID)
	if err != nil {
		// the approval stands; the next read of this child's books retries the grant
		log.Printf("Error granting achievements for child %d: %v", child.ID, err)
	}

	result := &ApprovalResult{Book: book, NewAchievements: granted}

	// the approval is committed from here on; accrual is left out when it cannot be read
	policy, err := s.policyFor(child.ID)
	if err != nil {
		log.Printf("Error loading reward policy after approving book %d: %v", book.ID, err)
		return result, nil
	}
	approved, err := s.bookRepo.CountApproved(child.ID)
	if err != nil {
		log.Printf("Error counting approved books after approving book %d: %v", book.ID, err)
		return result, nil
	}

	accrual := rewards.ComputeAccrual(approved, policy)
	result.Policy = &policy
	result.Accrual = &accrual
	return result, nil
}

// Reject moves a pending book to rejected. Rejected books are terminal.
func (s *BookService) Reject(ctx context.Context, parentID, bookID int64) (*models.Book, error) {
	book, _, err := s.transition(parentID, bookID, models.BookRejected)
	return book, err
}

func (s *BookService) transition(parentID, bookID int64, to models.BookStatus) (*models.Book, *models.Child, error) {
	book, child, err := s.ownedBook(parentID, bookID)
	if err != nil {
		return nil, nil, err
	}
	if err := rewards.Transition(book.Status, to); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidState, err)
	}

	var approvedAt *time.Time
	if to == models.BookApproved {
		now := time.Now()
		approvedAt = &now
	}
	ok, err := s.bookRepo.UpdateStatus(book.ID, models.BookPending, to, approvedAt)
	if err != nil {
		return nil, nil, unavailable("update book status", err)
	}
	if !ok {
		return nil, nil, fmt.Errorf("%w: book %d was reviewed concurrently: %w", ErrInvalidState, book.ID, rewards.ErrInvalidTransition)
	}

	updated, err := s.bookRepo.GetBookByID(book.ID)
	if err != nil {
		return nil, nil, unavailable("reload book", err)
	}
	if updated == nil {
		return nil, nil, ErrBookNotFound
	}
	return updated, child, nil
}

// ReconcileAchievements grants every milestone the child's approved count
// has reached but that is not yet stored, and returns the new grants
func (s *BookService) ReconcileAchievements(ctx context.Context, childID int64) ([]models.Achievement, error) {
	lockCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	unlock, err := s.locker.Lock(lockCtx, lock.ChildKey(childID))
	if err != nil {
		return nil, unavailable("lock child", err)
	}
	defer unlock()

	approved, err := s.bookRepo.CountApproved(childID)
	if err != nil {
		return nil, unavailable("count approved books", err)
	}
	granted, err := s.achievementRepo.GrantedTypes(childID)
	if err != nil {
		return nil, unavailable("load achievements", err)
	}

	var earned []models.Achievement
	for _, a := range rewards.Evaluate(childID, approved, granted) {
		inserted, err := s.achievementRepo.Grant(&a)
		if err != nil {
			return earned, unavailable("grant achievement", err)
		}
		if inserted {
			log.Printf("Child %d earned achievement %s", childID, a.AchievementType)
			earned = append(earned, a)
		}
	}
	return earned, nil
}

// ReconcileAll repairs achievements for every child and reports how many were granted
func (s *BookService) ReconcileAll(ctx context.Context) (int, error) {
	children, err := s.childRepo.ListAll()
	if err != nil {
		return 0, unavailable("list children", err)
	}
	total := 0
	for _, child := range children {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		granted, err := s.ReconcileAchievements(ctx, child.ID)
		if err != nil {
			log.Printf("Error reconciling achievements for child %d: %v", child.ID, err)
			continue
		}
		total += len(granted)
	}
	return total, nil
}

func (s *BookService) reconcileOnRead(ctx context.Context, childID int64) {
	if _, err := s.ReconcileAchievements(ctx, childID); err != nil {
		log.Printf("Error reconciling achievements for child %d: %v", childID, err)
	}
}

// ListChildBooks returns a child's books, newest first, optionally filtered by status
func (s *BookService) ListChildBooks(ctx context.Context, parentID, childID int64, status models.BookStatus) ([]models.Book, error) {
	if status != "" && !rewards.ValidStatus(status) {
		return nil, validation.ValidationError{Field: "status", Message: "unknown status"}
	}
	if _, err := ownedChild(s.childRepo, parentID, childID); err != nil {
		return nil, err
	}
	s.reconcileOnRead(ctx, childID)

	books, err := s.bookRepo.ListByChild(childID, status)
	if err != nil {
		return nil, unavailable("list books", err)
	}
	return books, nil
}

// ListPending returns the parent's review queue, oldest submission first
func (s *BookService) ListPending(parentID int64) ([]models.BookWithChild, error) {
	pending, err := s.bookRepo.ListPendingByParent(parentID)
	if err != nil {
		return nil, unavailable("list pending books", err)
	}
	return pending, nil
}

// ListAchievements returns a child's achievements in the order they were earned
func (s *BookService) ListAchievements(ctx context.Context, parentID, childID int64) ([]models.Achievement, error) {
	if _, err := ownedChild(s.childRepo, parentID, childID); err != nil {
		return nil, err
	}
	s.reconcileOnRead(ctx, childID)

	achievements, err := s.achievementRepo.ListByChild(childID)
	if err != nil {
		return nil, unavailable("list achievements", err)
	}
	return achievements, nil
}

// ChildSummary derives a child's progress from fresh reads
func (s *BookService) ChildSummary(ctx context.Context, parentID, childID int64) (*ChildSummary, error) {
	child, err := ownedChild(s.childRepo, parentID, childID)
	if err != nil {
		return nil, err
	}
	s.reconcileOnRead(ctx, childID)

	policy, err := s.policyFor(childID)
	if err != nil {
		return nil, err
	}
	counts, err := s.bookRepo.CountByStatus(childID)
	if err != nil {
		return nil, unavailable("count books", err)
	}
	achievements, err := s.achievementRepo.ListByChild(childID)
	if err != nil {
		return nil, unavailable("list achievements", err)
	}

	accrual := rewards.ComputeAccrual(counts.Approved, policy)
	summary := &ChildSummary{
		Child:        child,
		GradeLabel:   rewards.FormatGradeLevel(child.GradeLevel),
		Policy:       policy,
		Counts:       BookCounts(counts),
		Accrual:      accrual,
		Progress:     accrual.Percent(),
		EarnedLabel:  rewards.FormatAmount(policy.Unit, accrual.TotalEarned),
		GoalLabel:    rewards.FormatAmount(policy.Unit, policy.PayoutThreshold),
		Achievements: achievements,
	}
	if next, ok := rewards.NextMilestone(counts.Approved); ok {
		summary.NextMilestone = &next
	}
	return summary, nil
}
