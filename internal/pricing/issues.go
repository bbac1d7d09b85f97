package pricing

import (
	"github.com/atelierline/artmarket-backend/pkg/enums"
	pkgerrors "github.com/atelierline/artmarket-backend/pkg/errors"
)

// IssuesError folds the collected line issues into one structured conflict.
// The dominant category is surfaced so the storefront can distinguish "just
// reserved by someone else" from plain out-of-stock.
func IssuesError(issues []Issue) *pkgerrors.Error {
	category := dominantCategory(issues)
	return pkgerrors.New(pkgerrors.CodeConflict, "cart validation failed").
		WithDetails(map[string]any{
			"category": category.String(),
			"issues":   issues,
		})
}

// dominantCategory picks the most actionable category for the top-level
// error: a reservation beats stock, stock beats a generally invalid line.
func dominantCategory(issues []Issue) enums.ValidationCategory {
	seen := map[enums.ValidationCategory]bool{}
	for _, issue := range issues {
		seen[issue.Category] = true
	}
	switch {
	case seen[enums.ValidationItemReserved]:
		return enums.ValidationItemReserved
	case seen[enums.ValidationOutOfStock]:
		return enums.ValidationOutOfStock
	default:
		return enums.ValidationItemInvalid
	}
}

// CategoryFromError extracts the validation category from a conflict built
// by IssuesError, or "" when the error carries none.
func CategoryFromError(err error) enums.ValidationCategory {
	typed := pkgerrors.As(err)
	if typed == nil {
		return ""
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		return ""
	}
	if category, ok := details["category"].(string); ok {
		return enums.ValidationCategory(category)
	}
	return ""
}
