package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"bookbuddy/internal/bookinfo"
	"bookbuddy/internal/models"
	"bookbuddy/internal/rewards"
	"bookbuddy/internal/validation"
)

func TestSubmitValidation(t *testing.T) {
	env := newTestEnv(t)
	parent := env.parent(t, "p@example.com")
	child := env.child(t, parent.ID)

	tests := []struct {
		name      string
		input     SubmitInput
		wantField string
	}{
		{name: "missing title", input: SubmitInput{Title: "  ", Author: "A", Summary: "S"}, wantField: "title"},
		{name: "missing author", input: SubmitInput{Title: "T", Author: "", Summary: "S"}, wantField: "author"},
		{name: "missing summary", input: SubmitInput{Title: "T", Author: "A", Summary: "\n"}, wantField: "summary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.books.Submit(context.Background(), parent.ID, child.ID, tt.input)
			var vErr validation.ValidationError
			if !errors.As(err, &vErr) || vErr.Field != tt.wantField {
				t.Errorf("Submit() error = %v, want ValidationError on %s", err, tt.wantField)
			}
		})
	}
}

func TestSubmitEnrichesAndNotifies(t *testing.T) {
	env := newTestEnv(t)
	parent := env.parent(t, "p@example.com")
	child := env.child(t, parent.ID)
	env.lookup.info = bookinfo.Info{CoverURL: "https://covers/x.jpg", ReadingLevel: "Grade 3-5", InterestLevel: "Ages 8-12"}

	book := env.submit(t, parent.ID, child.ID, "  Matilda  ")

	if book.Title != "Matilda" || book.Status != models.BookPending {
		t.Errorf("book = %+v", book)
	}
	if book.CoverURL != "https://covers/x.jpg" || book.ReadingLevel != "Grade 3-5" || book.InterestLevel != "Ages 8-12" {
		t.Errorf("metadata not attached: %+v", book)
	}

	kinds := env.email.kinds()
	if len(kinds) != 2 || kinds[1] != "submitted" {
		t.Errorf("emails sent = %v, want welcome then submitted", kinds)
	}
}

func TestSubmitDegradesWhenLookupFails(t *testing.T) {
	tests := []struct {
		name   string
		lookup fakeLookup
	}{
		{name: "lookup error", lookup: fakeLookup{err: bookinfo.ErrUnavailable}},
		{name: "lookup timeout", lookup: fakeLookup{info: bookinfo.Info{CoverURL: "late"}, delay: time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			parent := env.parent(t, "p@example.com")
			child := env.child(t, parent.ID)
			*env.lookup = tt.lookup

			start := time.Now()
			book := env.submit(t, parent.ID, child.ID, "Holes")
			if time.Since(start) > 500*time.Millisecond {
				t.Errorf("submission waited %v for the lookup", time.Since(start))
			}
			if book.CoverURL != "" || book.ReadingLevel != "" {
				t.Errorf("expected no metadata, got %+v", book)
			}
			stored, err := env.books.GetBook(parent.ID, book.ID)
			if err != nil || stored == nil {
				t.Fatalf("book should be stored: %v", err)
			}
		})
	}
}

func TestApproveThreeBooksAtDefaultPolicy(t *testing.T) {
	env := newTestEnv(t)
	parent := env.parent(t, "p@example.com")
	child := env.child(t, parent.ID)

	var last *ApprovalResult
	for _, title := range []string{"One", "Two", "Three"} {
		book := env.submit(t, parent.ID, child.ID, title)
		result, err := env.books.Approve(context.Background(), parent.ID, book.ID)
		if err != nil {
			t.Fatalf("Approve() error = %v", err)
		}
		if result.Book.Status != models.BookApproved || result.Book.ApprovedAt == nil {
			t.Errorf("approved book = %+v", result.Book)
		}
		last = result
	}

	if last.Accrual == nil || last.Policy == nil {
		t.Fatalf("approval result is missing accrual: %+v", last)
	}
	if math.Abs(last.Accrual.TotalEarned-3.00) > 1e-9 {
		t.Errorf("TotalEarned = %v, want 3.00", last.Accrual.TotalEarned)
	}
	if math.Abs(last.Accrual.Ratio-0.30) > 1e-9 {
		t.Errorf("Ratio = %v, want 0.30", last.Accrual.Ratio)
	}

	summary, err := env.books.ChildSummary(context.Background(), parent.ID, child.ID)
	if err != nil {
		t.Fatalf("ChildSummary() error = %v", err)
	}
	if summary.EarnedLabel != "$3.00" || summary.GoalLabel != "$10.00" || summary.Counts.Approved != 3 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.NextMilestone == nil || summary.NextMilestone.Type != "milestone_5" {
		t.Errorf("NextMilestone = %+v, want milestone_5", summary.NextMilestone)
	}
}

func TestApproveGrantsMilestones(t *testing.T) {
	env := newTestEnv(t)
	parent := env.parent(t, "p@example.com")
	child := env.child(t, parent.ID)

	var grantsByBook [][]models.Achievement
	for i := 0; i < 5; i++ {
		book := env.submit(t, parent.ID, child.ID, "Book")
		result, err := env.books.Approve(context.Background(), parent.ID, book.ID)
		if err != nil {
			t.Fatalf("Approve() error = %v", err)
		}
		grantsByBook = append(grantsByBook, result.NewAchievements)
	}

	if len(grantsByBook[0]) != 1 || grantsByBook[0][0].AchievementType != "first_book" {
		t.Errorf("first approval granted %+v, want first_book", grantsByBook[0])
	}
	for i := 1; i < 4; i++ {
		if len(grantsByBook[i]) != 0 {
			t.Errorf("approval %d granted %+v, want nothing", i+1, grantsByBook[i])
		}
	}
	if len(grantsByBook[4]) != 1 || grantsByBook[4][0].AchievementType != "milestone_5" {
		t.Errorf("fifth approval granted %+v, want only milestone_5", grantsByBook[4])
	}

	achievements, err := env.books.ListAchievements(context.Background(), parent.ID, child.ID)
	if err != nil {
		t.Fatalf("ListAchievements() error = %v", err)
	}
	if len(achievements) != 2 {
		t.Errorf("stored %d achievements, want 2", len(achievements))
	}
	if len(grantsByBook[0]) == 1 && len(achievements) > 0 && grantsByBook[0][0].ID != achievements[0].ID {
		t.Errorf("granted achievement ID = %d, stored ID = %d", grantsByBook[0][0].ID, achievements[0].ID)
	}
}

func TestReviewTransitionsAreTerminal(t *testing.T) {
	env := newTestEnv(t)
	parent := env.parent(t, "p@example.com")
	child := env.child(t, parent.ID)
	ctx := context.Background()

	approved := env.submit(t, parent.ID, child.ID, "Approved")
	if _, err := env.books.Approve(ctx, parent.ID, approved.ID); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	rejected := env.submit(t, parent.ID, child.ID, "Rejected")
	if _, err := env.books.Reject(ctx, parent.ID, rejected.ID); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}

	tests := []struct {
		name string
		run  func() error
	}{
		{name: "approve twice", run: func() error { _, err := env.books.Approve(ctx, parent.ID, approved.ID); return err }},
		{name: "reject after approve", run: func() error { _, err := env.books.Reject(ctx, parent.ID, approved.ID); return err }},
		{name: "approve after reject", run: func() error { _, err := env.books.Approve(ctx, parent.ID, rejected.ID); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if !errors.Is(err, ErrInvalidState) || !errors.Is(err, rewards.ErrInvalidTransition) {
				t.Errorf("error = %v, want ErrInvalidState", err)
			}
		})
	}

	summary, _ := env.books.ChildSummary(ctx, parent.ID, child.ID)
	if summary.Counts.Approved != 1 || summary.Counts.Rejected != 1 || summary.Accrual.TotalEarned != 1 {
		t.Errorf("counts after failed transitions = %+v, earned %v", summary.Counts, summary.Accrual.TotalEarned)
	}
}

func TestConcurrentApprovalsGrantOnce(t *testing.T) {
	env := newTestEnv(t)
	parent := env.parent(t, "p@example.com")
	child := env.child(t, parent.ID)
	book := env.submit(t, parent.ID, child.ID, "Race")

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.books.Approve(context.Background(), parent.ID, book.ID); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("%d approvals succeeded, want exactly 1", successes)
	}
	achievements, _ := env.books.ListAchievements(context.Background(), parent.ID, child.ID)
	if len(achievements) != 1 {
		t.Errorf("stored %d achievements, want 1", len(achievements))
	}
}

func TestReconcileRepairsMissedGrants(t *testing.T) {
	env := newTestEnv(t)
	parent := env.parent(t, "p@example.com")
	child := env.child(t, parent.ID)

	// approve behind the service's back so no grant happens
	for i := 0; i < 6; i++ {
		book := env.submit(t, parent.ID, child.ID, "Book")
		now := time.Now()
		if _, err := env.books.bookRepo.UpdateStatus(book.ID, models.BookPending, models.BookApproved, &now); err != nil {
			t.Fatalf("UpdateStatus() error = %v", err)
		}
	}

	if _, err := env.books.ListChildBooks(context.Background(), parent.ID, child.ID, ""); err != nil {
		t.Fatalf("ListChildBooks() error = %v", err)
	}
	granted, _ := env.books.achievementRepo.GrantedTypes(child.ID)
	if !granted["first_book"] || !granted["milestone_5"] || len(granted) != 2 {
		t.Errorf("granted after read = %v", granted)
	}

	n, err := env.books.ReconcileAll(context.Background())
	if err != nil || n != 0 {
		t.Errorf("ReconcileAll() = %d, %v; want nothing left to grant", n, err)
	}
}

func TestBooksOfOtherParentsAreForbidden(t *testing.T) {
	env := newTestEnv(t)
	owner := env.parent(t, "owner@example.com")
	other := env.parent(t, "other@example.com")
	child := env.child(t, owner.ID)
	book := env.submit(t, owner.ID, child.ID, "Mine")
	ctx := context.Background()

	if _, err := env.books.Approve(ctx, other.ID, book.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("Approve() by other parent error = %v, want ErrNotAuthorized", err)
	}
	if _, err := env.books.Submit(ctx, other.ID, child.ID, SubmitInput{Title: "T", Author: "A", Summary: "S"}); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("Submit() for other parent's child error = %v, want ErrNotAuthorized", err)
	}
	if _, err := env.books.Approve(ctx, owner.ID, 9999); !errors.Is(err, ErrBookNotFound) {
		t.Errorf("Approve() missing book error = %v, want ErrBookNotFound", err)
	}
}

func TestListPendingAndFilter(t *testing.T) {
	env := newTestEnv(t)
	parent := env.parent(t, "p@example.com")
	child := env.child(t, parent.ID)
	ctx := context.Background()

	first := env.submit(t, parent.ID, child.ID, "First")
	env.submit(t, parent.ID, child.ID, "Second")
	env.books.Approve(ctx, parent.ID, first.ID)

	pending, err := env.books.ListPending(parent.ID)
	if err != nil {
		t.Fatalf("ListPending() error = %v", err)
	}
	if len(pending) != 1 || pending[0].Title != "Second" || pending[0].Child.ID != child.ID {
		t.Errorf("ListPending() = %+v", pending)
	}

	approved, _ := env.books.ListChildBooks(ctx, parent.ID, child.ID, models.BookApproved)
	if len(approved) != 1 || approved[0].ID != first.ID {
		t.Errorf("ListChildBooks(approved) = %+v", approved)
	}

	if _, err := env.books.ListChildBooks(ctx, parent.ID, child.ID, "archived"); err == nil {
		t.Error("expected validation error for unknown status filter")
	}
}

func TestPolicyChangeRescalesEarnings(t *testing.T) {
	env := newTestEnv(t)
	parent := env.parent(t, "p@example.com")
	child := env.child(t, parent.ID)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		book := env.submit(t, parent.ID, child.ID, "Book")
		env.books.Approve(ctx, parent.ID, book.ID)
	}

	if _, err := env.children.SetPolicy(parent.ID, child.ID, rewards.Policy{Unit: models.RewardPoints, AmountPerBook: 10, PayoutThreshold: 0}); err != nil {
		t.Fatalf("SetPolicy() error = %v", err)
	}

	summary, err := env.books.ChildSummary(ctx, parent.ID, child.ID)
	if err != nil {
		t.Fatalf("ChildSummary() error = %v", err)
	}
	if summary.Accrual.TotalEarned != 40 || summary.EarnedLabel != "40 pts" {
		t.Errorf("earned = %v (%s), want 40 pts", summary.Accrual.TotalEarned, summary.EarnedLabel)
	}
	if summary.Accrual.HasGoal || summary.Progress != 100 {
		t.Errorf("zero threshold should report a completed goal, got %+v progress %v", summary.Accrual, summary.Progress)
	}
}

func TestApproveStandsWhenAccrualReadFails(t *testing.T) {
	env := newTestEnv(t)
	parent := env.parent(t, "p@example.com")
	child := env.child(t, parent.ID)
	book := env.submit(t, parent.ID, child.ID, "Committed")

	if _, err := env.db.Exec("DROP TABLE reward_policies"); err != nil {
		t.Fatalf("failed to drop reward_policies: %v", err)
	}

	result, err := env.books.Approve(context.Background(), parent.ID, book.ID)
	if err != nil {
		t.Fatalf("Approve() error = %v, want the committed approval", err)
	}
	if result.Book == nil || result.Book.Status != models.BookApproved {
		t.Errorf("Approve() book = %+v, want approved", result.Book)
	}
	if result.Accrual != nil || result.Policy != nil {
		t.Errorf("accrual should be omitted when it cannot be read, got %+v", result)
	}

	stored, err := env.books.GetBook(parent.ID, book.ID)
	if err != nil || stored.Status != models.BookApproved {
		t.Fatalf("stored book = %+v, %v", stored, err)
	}
	if _, err := env.books.Approve(context.Background(), parent.ID, book.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second Approve() error = %v, want ErrInvalidState", err)
	}
}

func TestVerificationPrompt(t *testing.T) {
	tests := []struct {
		name      string
		info      bookinfo.Info
		wantLevel bool
	}{
		{"with reading level", bookinfo.Info{ReadingLevel: "Grade 3-5"}, true},
		{"without reading level", bookinfo.Info{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			parent := env.parent(t, "p@example.com")
			child := env.child(t, parent.ID)
			env.lookup.info = tt.info

			book, err := env.books.Submit(context.Background(), parent.ID, child.ID, SubmitInput{
				Title:   "Charlotte's Web",
				Author:  "E. B. White",
				Summary: "A pig named Wilbur is saved by a spider who writes words in her web.",
			})
			if err != nil {
				t.Fatalf("Submit() error = %v", err)
			}

			prompt, err := env.books.VerificationPrompt(parent.ID, book.ID)
			if err != nil {
				t.Fatalf("VerificationPrompt() error = %v", err)
			}
			for _, want := range []string{
				`Book Title: "Charlotte's Web"`,
				"Author: E. B. White",
				"Child's Summary:\n\"A pig named Wilbur is saved by a spider who writes words in her web.\"",
				"4. Any red flags that suggest they didn't read it?",
			} {
				if !strings.Contains(prompt, want) {
					t.Errorf("prompt missing %q:\n%s", want, prompt)
				}
			}
			if got := strings.Contains(prompt, "Reading Level: Grade 3-5"); got != tt.wantLevel {
				t.Errorf("reading level line present = %v, want %v", got, tt.wantLevel)
			}
			if !tt.wantLevel && strings.Contains(prompt, "Reading Level:") {
				t.Errorf("prompt should omit an empty reading level:\n%s", prompt)
			}
		})
	}
}

func TestVerificationPromptChecksOwnership(t *testing.T) {
	env := newTestEnv(t)
	parent := env.parent(t, "p@example.com")
	other := env.parent(t, "other@example.com")
	child := env.child(t, parent.ID)

	book, err := env.books.Submit(context.Background(), parent.ID, child.ID, SubmitInput{Title: "T", Author: "A", Summary: "S"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if _, err := env.books.VerificationPrompt(other.ID, book.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("VerificationPrompt() for other parent error = %v, want ErrNotAuthorized", err)
	}
	if _, err := env.books.VerificationPrompt(parent.ID, book.ID+100); !errors.Is(err, ErrBookNotFound) {
		t.Errorf("VerificationPrompt() for missing book error = %v, want ErrBookNotFound", err)
	}
}
