package core

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	CategoryFood          Category = "Food"
	CategoryTravel        Category = "Travel"
	CategoryRent          Category = "Rent"
	CategoryShopping      Category = "Shopping"
	CategoryEntertainment Category = "Entertainment"
	CategoryHealthcare    Category = "Healthcare"
	CategoryBills         Category = "Bills"
	CategoryEducation     Category = "Education"
	CategoryOthers        Category = "Others"
)

const (
	InsightSpendingAnalysis   InsightType = "spending_analysis"
	InsightBudgetOptimization InsightType = "budget_optimization"
	InsightPrediction         InsightType = "prediction"
	InsightGeneral            InsightType = "general"
)

const (
	MaxDescriptionLength     = 200
	MaxInsightResponseLength = 5000
)

// Categories lists every accepted category in display order.
var Categories = []Category{
	CategoryFood,
	CategoryTravel,
	CategoryRent,
	CategoryShopping,
	CategoryEntertainment,
	CategoryHealthcare,
	CategoryBills,
	CategoryEducation,
	CategoryOthers,
}

type (
	Category    string
	InsightType string

	Expense struct {
		ID          string    `json:"id"`
		UserID      string    `json:"userId"`
		Amount      Money     `json:"amount"`
		Category    Category  `json:"category"`
		Description string    `json:"description"`
		Date        time.Time `json:"date"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	// Budget is a spending ceiling for one (user, category, month).
	Budget struct {
		ID           string    `json:"id"`
		UserID       string    `json:"userId"`
		Category     Category  `json:"category"`
		MonthlyLimit Money     `json:"monthlyLimit"`
		Month        string    `json:"month"`
		CreatedAt    time.Time `json:"createdAt"`
		UpdatedAt    time.Time `json:"updatedAt"`
	}

	// Insight is a cached piece of generated commentary together with the
	// numbers it was generated from.
	Insight struct {
		ID           string          `json:"id"`
		UserID       string          `json:"userId"`
		Type         InsightType     `json:"insightType"`
		DataSnapshot json.RawMessage `json:"dataSnapshot,omitempty"`
		Response     string          `json:"response"`
		CreatedAt    time.Time       `json:"createdAt"`
		ExpiresAt    time.Time       `json:"expiresAt"`
	}

	User struct {
		ID               string    `json:"id"`
		Name             string    `json:"name"`
		Email            string    `json:"email"`
		PasswordHash     string    `json:"-"`
		RefreshTokenHash string    `json:"-"`
		CreatedAt        time.Time `json:"createdAt"`
	}
)

// ParseCategory returns the category matching s exactly.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	if !c.Valid() {
		return "", NewValidationError("category", "must be one of "+categoryList())
	}
	return c, nil
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func categoryList() string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func (t InsightType) Valid() bool {
	switch t {
	case InsightSpendingAnalysis, InsightBudgetOptimization, InsightPrediction, InsightGeneral:
		return true
	}
	return false
}

func (e Expense) Validate() error {
	if e.Amount.Cents <= 0 {
		return NewValidationError("amount", "must be at least 0.01")
	}
	if !e.Category.Valid() {
		return NewValidationError("category", "must be one of "+categoryList())
	}
	desc := strings.TrimSpace(e.Description)
	if desc == "" {
		return NewValidationError("description", "is required")
	}
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return NewValidationError("description", "cannot exceed 200 characters")
	}
	if e.Date.IsZero() {
		return NewValidationError("date", "is required")
	}
	if !DateInRange(e.Date) {
		return NewValidationError("date", DateRangeMessage)
	}
	return nil
}

func (b Budget) Validate() error {
	if !b.Category.Valid() {
		return NewValidationError("category", "must be one of "+categoryList())
	}
	if b.MonthlyLimit.Cents < 0 {
		return NewValidationError("monthlyLimit", "cannot be negative")
	}
	if !ValidMonth(b.Month) {
		return NewValidationError("month", "must be in YYYY-MM format")
	}
	return nil
}

func (i Insight) Validate() error {
	if !i.Type.Valid() {
		return NewValidationError("insightType", "unknown insight type")
	}
	if utf8.RuneCountInString(i.Response) > MaxInsightResponseLength {
		return NewValidationError("response", "cannot exceed 5000 characters")
	}
	return nil
}
