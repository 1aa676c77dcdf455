package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"bookbuddy/internal/rewards"
	"bookbuddy/internal/service"
)

// ChildHandler handles child profile and reward settings requests
type ChildHandler struct {
	childService *service.ChildService
	bookService  *service.BookService
}

// NewChildHandler creates a new child handler
func NewChildHandler(childService *service.ChildService, bookService *service.BookService) *ChildHandler {
	return &ChildHandler{
		childService: childService,
		bookService:  bookService,
	}
}

// gradeInput accepts a grade as either "K"/"3" or a bare JSON number
type gradeInput string

func (g *gradeInput) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*g = gradeInput(s)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*g = gradeInput(strconv.Itoa(n))
	return nil
}

type childRequest struct {
	Name        string          `json:"name"`
	GradeLevel  gradeInput      `json:"grade_level"`
	AvatarColor string          `json:"avatar_color"`
	Policy      *rewards.Policy `json:"reward_settings,omitempty"`
}

func (req childRequest) input() service.ChildInput {
	return service.ChildInput{
		Name:        req.Name,
		Grade:       string(req.GradeLevel),
		AvatarColor: req.AvatarColor,
		Policy:      req.Policy,
	}
}

// RewardSettingsResponse is the effective policy for a child
type RewardSettingsResponse struct {
	rewards.Policy
	IsDefault bool `json:"is_default"`
}

// ListChildren returns the parent's children, newest first
func (h *ChildHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())

	children, err := h.childService.ListChildren(parent.ID)
	if err != nil {
		writeServiceError(w, "Error listing children", err)
		return
	}
	respondJSON(w, http.StatusOK, children)
}

// Dashboard returns every child with book counts and earnings
func (h *ChildHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())

	stats, err := h.childService.ListChildrenWithStats(parent.ID)
	if err != nil {
		writeServiceError(w, "Error building dashboard", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// CreateChild adds a child, optionally with reward settings
func (h *ChildHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())

	var req childRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	child, err := h.childService.CreateChild(parent.ID, req.input())
	if err != nil {
		writeServiceError(w, "Error creating child", err)
		return
	}
	respondJSON(w, http.StatusCreated, child)
}

// GetChild returns one child
func (h *ChildHandler) GetChild(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())
	childID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	child, err := h.childService.GetChild(parent.ID, childID)
	if err != nil {
		writeServiceError(w, "Error getting child", err)
		return
	}
	respondJSON(w, http.StatusOK, child)
}

// UpdateChild replaces a child's profile
func (h *ChildHandler) UpdateChild(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())
	childID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req childRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	child, err := h.childService.UpdateChild(parent.ID, childID, req.input())
	if err != nil {
		writeServiceError(w, "Error updating child", err)
		return
	}
	respondJSON(w, http.StatusOK, child)
}

// DeleteChild removes a child and all of their books and achievements
func (h *ChildHandler) DeleteChild(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())
	childID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.childService.DeleteChild(parent.ID, childID); err != nil {
		writeServiceError(w, "Error deleting child", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetRewardSettings returns the child's effective reward policy
func (h *ChildHandler) GetRewardSettings(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())
	childID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	stored, err := h.childService.GetPolicy(parent.ID, childID)
	if err != nil {
		writeServiceError(w, "Error getting reward settings", err)
		return
	}
	respondJSON(w, http.StatusOK, RewardSettingsResponse{
		Policy:    rewards.PolicyFromModel(stored),
		IsDefault: stored == nil,
	})
}

// UpdateRewardSettings stores the child's reward policy
func (h *ChildHandler) UpdateRewardSettings(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())
	childID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var policy rewards.Policy
	if !decodeJSON(w, r, &policy) {
		return
	}

	stored, err := h.childService.SetPolicy(parent.ID, childID, policy)
	if err != nil {
		writeServiceError(w, "Error saving reward settings", err)
		return
	}
	respondJSON(w, http.StatusOK, RewardSettingsResponse{Policy: rewards.PolicyFromModel(stored)})
}

// Summary returns the child's progress toward their reward goal
func (h *ChildHandler) Summary(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())
	childID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	summary, err := h.bookService.ChildSummary(r.Context(), parent.ID, childID)
	if err != nil {
		writeServiceError(w, "Error building child summary", err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// Achievements returns the child's earned milestones
func (h *ChildHandler) Achievements(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())
	childID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	achievements, err := h.bookService.ListAchievements(r.Context(), parent.ID, childID)
	if err != nil {
		writeServiceError(w, "Error listing achievements", err)
		return
	}
	respondJSON(w, http.StatusOK, achievements)
}

// Milestones returns the achievement catalog
func (h *ChildHandler) Milestones(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, rewards.Catalog)
}
