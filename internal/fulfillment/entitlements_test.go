package fulfillment

import (
	"testing"

	"github.com/google/uuid"

	"github.com/atelierline/artmarket-backend/pkg/db/models"
	"github.com/atelierline/artmarket-backend/pkg/enums"
)

func TestMintTokensOnePerUnit(t *testing.T) {
	t.Parallel()

	editionID := uuid.New()
	item := models.OrderItem{
		ID:        uuid.New(),
		Kind:      enums.ItemKindDigital,
		EditionID: &editionID,
		Qty:       3,
	}

	tokens := MintTokens(item, "buyer-1")
	if len(tokens) != 3 {
		t.Fatalf("expected 3 entitlements, got %d", len(tokens))
	}

	seen := map[string]bool{}
	for _, entitlement := range tokens {
		if entitlement.OrderItemID != item.ID || entitlement.EditionID != editionID {
			t.Fatalf("unexpected references: %+v", entitlement)
		}
		if entitlement.BuyerID != "buyer-1" {
			t.Fatalf("unexpected buyer: %s", entitlement.BuyerID)
		}
		if entitlement.Token == "" || seen[entitlement.Token] {
			t.Fatalf("tokens must be unique and non-empty: %+v", tokens)
		}
		seen[entitlement.Token] = true
	}
}

func TestMintTokensGuards(t *testing.T) {
	t.Parallel()

	editionID := uuid.New()

	if got := MintTokens(models.OrderItem{ID: uuid.New(), Qty: 2}, "buyer-1"); got != nil {
		t.Fatalf("missing edition must mint nothing: %+v", got)
	}
	if got := MintTokens(models.OrderItem{ID: uuid.New(), EditionID: &editionID, Qty: 0}, "buyer-1"); got != nil {
		t.Fatalf("zero quantity must mint nothing: %+v", got)
	}
}
