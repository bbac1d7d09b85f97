package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atelierline/artmarket-backend/pkg/db/models"
	"github.com/atelierline/artmarket-backend/pkg/enums"
	pkgerrors "github.com/atelierline/artmarket-backend/pkg/errors"
)

type artworkLoader interface {
	FindArtworkByID(ctx context.Context, id uuid.UUID) (*models.Artwork, error)
	FindEditionByID(ctx context.Context, id uuid.UUID) (*models.Edition, error)
}

type holdLoader interface {
	FindLiveByArtworkID(ctx context.Context, artworkID uuid.UUID, now time.Time) (*models.ArtworkHold, error)
}

// Line is the authoritative re-priced snapshot of one cart line. Client
// prices are never copied in; every field comes from catalog state.
type Line struct {
	CartItemID     uuid.UUID
	Kind           enums.ItemKind
	ArtworkID      *uuid.UUID
	EditionID      *uuid.UUID
	ArtistID       uuid.UUID
	Title          string
	UnitPriceCents int64
	Qty            int
	SubtotalCents  int64

	// Physical dimensions, populated for unique artworks so the shipping
	// quote can pack them.
	WidthCm  float64
	HeightCm float64
	DepthCm  float64
	Framed   bool
}

// Result carries the validated lines plus the order-level aggregates.
type Result struct {
	Lines            []Line
	SubtotalCents    int64
	Currency         enums.Currency
	HasPhysicalGoods bool
	HasUniqueItems   bool
}

// Issue tags one failed line with its stable category.
type Issue struct {
	CartItemID uuid.UUID                `json:"cart_item_id"`
	Category   enums.ValidationCategory `json:"category"`
	Reason     string                   `json:"reason"`
}

// Resolver re-prices and validates carts against live catalog state.
type Resolver struct {
	catalog artworkLoader
	holds   holdLoader
	now     func() time.Time
}

// ResolverParams collects the resolver dependencies.
type ResolverParams struct {
	Catalog artworkLoader
	Holds   holdLoader
	Now     func() time.Time
}

// NewResolver builds the pricing resolver.
func NewResolver(params ResolverParams) (*Resolver, error) {
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog loader required")
	}
	if params.Holds == nil {
		return nil, fmt.Errorf("hold loader required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Resolver{
		catalog: params.Catalog,
		holds:   params.Holds,
		now:     params.Now,
	}, nil
}

// Resolve validates every cart line and returns the authoritative totals.
// Violations are collected across all lines; a non-empty issue list fails
// the whole cart so no partial order is ever assembled from it.
func (r *Resolver) Resolve(ctx context.Context, cart *models.CartRecord) (*Result, error) {
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart required")
	}
	if len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}

	now := r.now()
	result := &Result{Currency: cart.Currency}
	issues := []Issue{}

	for _, item := range cart.Items {
		line, issue, err := r.resolveLine(ctx, cart, item, now)
		if err != nil {
			return nil, err
		}
		if issue != nil {
			issues = append(issues, *issue)
			continue
		}
		result.Lines = append(result.Lines, *line)
		result.SubtotalCents += line.SubtotalCents
		if line.Kind.Physical() {
			result.HasPhysicalGoods = true
		}
		if line.Kind == enums.ItemKindUnique {
			result.HasUniqueItems = true
		}
	}

	if len(issues) > 0 {
		return nil, IssuesError(issues)
	}
	return result, nil
}

// resolveLine categorizes catalog-state violations as issues; an error return
// means the catalog itself could not be consulted and the checkout must not
// treat the line as invalid.
func (r *Resolver) resolveLine(ctx context.Context, cart *models.CartRecord, item models.CartItem, now time.Time) (*Line, *Issue, error) {
	switch item.Kind {
	case enums.ItemKindUnique:
		return r.resolveUnique(ctx, cart, item, now)
	case enums.ItemKindLimitedPrint, enums.ItemKindDigital:
		return r.resolveEdition(ctx, cart, item)
	default:
		return nil, invalid(item.ID, "unknown item kind"), nil
	}
}

func (r *Resolver) resolveUnique(ctx context.Context, cart *models.CartRecord, item models.CartItem, now time.Time) (*Line, *Issue, error) {
	if item.ArtworkID == nil {
		return nil, invalid(item.ID, "unique line missing artwork reference"), nil
	}
	if item.Qty != 1 {
		return nil, invalid(item.ID, "unique items are limited to quantity 1"), nil
	}

	artwork, err := r.catalog.FindArtworkByID(ctx, *item.ArtworkID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil, invalid(item.ID, "artwork no longer exists"), nil
		}
		return nil, nil, err
	}
	if !artwork.Status.Purchasable() {
		return nil, invalid(item.ID, fmt.Sprintf("artwork is %s", artwork.Status)), nil
	}
	if artwork.Currency != cart.Currency {
		return nil, invalid(item.ID, "artwork currency does not match cart"), nil
	}

	hold, err := r.holds.FindLiveByArtworkID(ctx, artwork.ID, now)
	if err != nil {
		return nil, nil, err
	}
	if hold != nil {
		return nil, &Issue{
			CartItemID: item.ID,
			Category:   enums.ValidationItemReserved,
			Reason:     "artwork is reserved by another checkout",
		}, nil
	}

	return &Line{
		CartItemID:     item.ID,
		Kind:           enums.ItemKindUnique,
		ArtworkID:      &artwork.ID,
		ArtistID:       artwork.ArtistID,
		Title:          artwork.Title,
		UnitPriceCents: artwork.PriceCents,
		Qty:            1,
		SubtotalCents:  artwork.PriceCents,
		WidthCm:        artwork.WidthCm,
		HeightCm:       artwork.HeightCm,
		DepthCm:        artwork.DepthCm,
		Framed:         artwork.Framed,
	}, nil, nil
}

func (r *Resolver) resolveEdition(ctx context.Context, cart *models.CartRecord, item models.CartItem) (*Line, *Issue, error) {
	if item.EditionID == nil {
		return nil, invalid(item.ID, "edition line missing edition reference"), nil
	}
	if item.Qty <= 0 {
		return nil, invalid(item.ID, "quantity must be positive"), nil
	}

	edition, err := r.catalog.FindEditionByID(ctx, *item.EditionID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil, invalid(item.ID, "edition no longer exists"), nil
		}
		return nil, nil, err
	}
	if edition.Kind != item.Kind {
		return nil, invalid(item.ID, "edition kind does not match cart line"), nil
	}
	if !edition.Status.Purchasable() {
		return nil, invalid(item.ID, fmt.Sprintf("edition is %s", edition.Status)), nil
	}
	if edition.Currency != cart.Currency {
		return nil, invalid(item.ID, "edition currency does not match cart"), nil
	}
	if edition.Available != nil && *edition.Available < item.Qty {
		return nil, &Issue{
			CartItemID: item.ID,
			Category:   enums.ValidationOutOfStock,
			Reason:     fmt.Sprintf("only %d remaining", *edition.Available),
		}, nil
	}

	return &Line{
		CartItemID:     item.ID,
		Kind:           edition.Kind,
		EditionID:      &edition.ID,
		ArtistID:       edition.ArtistID,
		Title:          edition.Title,
		UnitPriceCents: edition.PriceCents,
		Qty:            item.Qty,
		SubtotalCents:  edition.PriceCents * int64(item.Qty),
	}, nil, nil
}

func invalid(cartItemID uuid.UUID, reason string) *Issue {
	return &Issue{
		CartItemID: cartItemID,
		Category:   enums.ValidationItemInvalid,
		Reason:     reason,
	}
}
