package service

import (
	"context"
	"fmt"

	modulesservice "github.com/steepleworks/chorus/domains/modules/be/service"
	"github.com/steepleworks/chorus/platform/go/moduleconf"
)

// categoriesCollection holds the finance category records; each carries a
// "kind" field of either "income" or "expense".
const categoriesCollection = "finance_categories"

// DirectionHook stamps the transaction direction from the selected
// category's kind before the record is persisted.
//
// NOTE: earlier variants of this screen disagreed: one hardcoded "income"
// for every save, the other derived the direction from the category. The
// hardcoded variant is treated as the latent bug and the derivation is
// implemented; see DESIGN.md for the decision record.
type DirectionHook struct{}

// NewDirectionHook constructs the hook.
func NewDirectionHook() *DirectionHook {
	return &DirectionHook{}
}

// BeforeSave resolves the category and copies its kind onto the payload's
// direction field. A missing category is left for the store's required-field
// validation to reject.
func (h *DirectionHook) BeforeSave(ctx context.Context, cfg *moduleconf.Config, payload map[string]any, store modulesservice.Store) error {
	categoryID, _ := payload["category"].(string)
	if categoryID == "" {
		return nil
	}

	category, err := store.Get(ctx, categoriesCollection, categoryID, nil)
	if err != nil {
		return fmt.Errorf("resolve finance category %s: %w", categoryID, err)
	}

	kind, _ := category["kind"].(string)
	switch kind {
	case "income", "expense":
		payload["direction"] = kind
	default:
		return &modulesservice.ValidationError{
			Message: fmt.Sprintf("category %s has unknown kind %q", categoryID, kind),
		}
	}

	return nil
}
