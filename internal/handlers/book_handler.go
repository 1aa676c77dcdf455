package handlers

import (
	"net/http"

	"bookbuddy/internal/models"
	"bookbuddy/internal/service"
)

// BookHandler handles submissions and the parent's review queue
type BookHandler struct {
	bookService *service.BookService
}

// NewBookHandler creates a new book handler
func NewBookHandler(bookService *service.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

// SubmitBook records a book a child has finished reading
func (h *BookHandler) SubmitBook(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())
	childID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req service.SubmitInput
	if !decodeJSON(w, r, &req) {
		return
	}

	book, err := h.bookService.Submit(r.Context(), parent.ID, childID, req)
	if err != nil {
		writeServiceError(w, "Error submitting book", err)
		return
	}
	respondJSON(w, http.StatusCreated, book)
}

// ListChildBooks returns a child's books, filtered by ?status=
func (h *BookHandler) ListChildBooks(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())
	childID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	status := models.BookStatus(r.URL.Query().Get("status"))
	books, err := h.bookService.ListChildBooks(r.Context(), parent.ID, childID, status)
	if err != nil {
		writeServiceError(w, "Error listing books", err)
		return
	}
	respondJSON(w, http.StatusOK, books)
}

// ListPending returns books awaiting review across all of the parent's children
func (h *BookHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())

	pending, err := h.bookService.ListPending(parent.ID)
	if err != nil {
		writeServiceError(w, "Error listing pending books", err)
		return
	}
	respondJSON(w, http.StatusOK, pending)
}

// GetBook returns one book
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())
	bookID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	book, err := h.bookService.GetBook(parent.ID, bookID)
	if err != nil {
		writeServiceError(w, "Error getting book", err)
		return
	}
	respondJSON(w, http.StatusOK, book)
}

// VerificationPromptResponse carries the text a parent pastes into a chat assistant
type VerificationPromptResponse struct {
	Prompt string `json:"prompt"`
}

// GetVerificationPrompt returns a prompt for checking a child's summary
func (h *BookHandler) GetVerificationPrompt(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())
	bookID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	prompt, err := h.bookService.VerificationPrompt(parent.ID, bookID)
	if err != nil {
		writeServiceError(w, "Error building verification prompt", err)
		return
	}
	respondJSON(w, http.StatusOK, VerificationPromptResponse{Prompt: prompt})
}

// ApproveBook approves a pending book and reports new achievements and accrual
func (h *BookHandler) ApproveBook(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())
	bookID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	result, err := h.bookService.Approve(r.Context(), parent.ID, bookID)
	if err != nil {
		writeServiceError(w, "Error approving book", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// RejectBook rejects a pending book
func (h *BookHandler) RejectBook(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())
	bookID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	book, err := h.bookService.Reject(r.Context(), parent.ID, bookID)
	if err != nil {
		writeServiceError(w, "Error rejecting book", err)
		return
	}
	respondJSON(w, http.StatusOK, book)
}
