package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/atelierline/artmarket-backend/pkg/db/models"
	"github.com/atelierline/artmarket-backend/pkg/enums"
	pkgerrors "github.com/atelierline/artmarket-backend/pkg/errors"
)

type fakeCatalog struct {
	artworks map[uuid.UUID]*models.Artwork
	editions map[uuid.UUID]*models.Edition
	loadErr  error
}

func (f *fakeCatalog) FindArtworkByID(ctx context.Context, id uuid.UUID) (*models.Artwork, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if artwork, ok := f.artworks[id]; ok {
		return artwork, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "artwork not found")
}

func (f *fakeCatalog) FindEditionByID(ctx context.Context, id uuid.UUID) (*models.Edition, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if edition, ok := f.editions[id]; ok {
		return edition, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "edition not found")
}

type fakeHolds struct {
	held map[uuid.UUID]bool
}

func (f *fakeHolds) FindLiveByArtworkID(ctx context.Context, artworkID uuid.UUID, now time.Time) (*models.ArtworkHold, error) {
	if f.held[artworkID] {
		return &models.ArtworkHold{ArtworkID: artworkID, OrderID: uuid.New(), ExpiresAt: now.Add(time.Minute)}, nil
	}
	return nil, nil
}

func newTestResolver(t *testing.T, catalog *fakeCatalog, holds *fakeHolds) *Resolver {
	t.Helper()
	if catalog.artworks == nil {
		catalog.artworks = map[uuid.UUID]*models.Artwork{}
	}
	if catalog.editions == nil {
		catalog.editions = map[uuid.UUID]*models.Edition{}
	}
	if holds.held == nil {
		holds.held = map[uuid.UUID]bool{}
	}
	r, err := NewResolver(ResolverParams{Catalog: catalog, Holds: holds})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return r
}

func publishedArtwork(priceCents int64) *models.Artwork {
	return &models.Artwork{
		ID:         uuid.New(),
		ArtistID:   uuid.New(),
		Title:      "Untitled",
		Status:     enums.ArtworkStatusPublished,
		PriceCents: priceCents,
		Currency:   enums.CurrencyEUR,
		WidthCm:    60,
		HeightCm:   80,
		DepthCm:    4,
	}
}

func intPtr(v int) *int { return &v }

func TestResolveRepricesFromCatalog(t *testing.T) {
	t.Parallel()

	artwork := publishedArtwork(250000)
	edition := &models.Edition{
		ID:         uuid.New(),
		ArtistID:   uuid.New(),
		Kind:       enums.ItemKindLimitedPrint,
		Title:      "Print Run II",
		Status:     enums.EditionStatusPublished,
		PriceCents: 8000,
		Currency:   enums.CurrencyEUR,
		Available:  intPtr(10),
	}
	catalog := &fakeCatalog{
		artworks: map[uuid.UUID]*models.Artwork{artwork.ID: artwork},
		editions: map[uuid.UUID]*models.Edition{edition.ID: edition},
	}
	r := newTestResolver(t, catalog, &fakeHolds{})

	cart := &models.CartRecord{
		ID:       uuid.New(),
		Currency: enums.CurrencyEUR,
		Status:   enums.CartStatusActive,
		Items: []models.CartItem{
			// The client price is a lie; the catalog price must win.
			{ID: uuid.New(), Kind: enums.ItemKindUnique, ArtworkID: &artwork.ID, Qty: 1, ClientPriceCents: 1},
			{ID: uuid.New(), Kind: enums.ItemKindLimitedPrint, EditionID: &edition.ID, Qty: 3, ClientPriceCents: 1},
		},
	}

	result, err := r.Resolve(context.Background(), cart)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.SubtotalCents != 250000+3*8000 {
		t.Fatalf("unexpected subtotal: %d", result.SubtotalCents)
	}
	if !result.HasPhysicalGoods || !result.HasUniqueItems {
		t.Fatalf("unexpected flags: %+v", result)
	}
	if len(result.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(result.Lines))
	}
	if result.Lines[0].UnitPriceCents != 250000 {
		t.Fatalf("unique line not re-priced: %d", result.Lines[0].UnitPriceCents)
	}
	if result.Lines[1].SubtotalCents != 24000 {
		t.Fatalf("edition line subtotal: %d", result.Lines[1].SubtotalCents)
	}
}

func TestResolveReservedArtwork(t *testing.T) {
	t.Parallel()

	artwork := publishedArtwork(250000)
	catalog := &fakeCatalog{artworks: map[uuid.UUID]*models.Artwork{artwork.ID: artwork}}
	holds := &fakeHolds{held: map[uuid.UUID]bool{artwork.ID: true}}
	r := newTestResolver(t, catalog, holds)

	cart := &models.CartRecord{
		ID:       uuid.New(),
		Currency: enums.CurrencyEUR,
		Items: []models.CartItem{
			{ID: uuid.New(), Kind: enums.ItemKindUnique, ArtworkID: &artwork.ID, Qty: 1},
		},
	}

	_, err := r.Resolve(context.Background(), cart)
	if err == nil {
		t.Fatal("expected reservation conflict")
	}
	if got := CategoryFromError(err); got != enums.ValidationItemReserved {
		t.Fatalf("unexpected category: %s", got)
	}
}

func TestResolveOutOfStockEdition(t *testing.T) {
	t.Parallel()

	edition := &models.Edition{
		ID:         uuid.New(),
		ArtistID:   uuid.New(),
		Kind:       enums.ItemKindDigital,
		Title:      "Study 04",
		Status:     enums.EditionStatusPublished,
		PriceCents: 1500,
		Currency:   enums.CurrencyEUR,
		Available:  intPtr(1),
	}
	catalog := &fakeCatalog{editions: map[uuid.UUID]*models.Edition{edition.ID: edition}}
	r := newTestResolver(t, catalog, &fakeHolds{})

	cart := &models.CartRecord{
		ID:       uuid.New(),
		Currency: enums.CurrencyEUR,
		Items: []models.CartItem{
			{ID: uuid.New(), Kind: enums.ItemKindDigital, EditionID: &edition.ID, Qty: 2},
		},
	}

	_, err := r.Resolve(context.Background(), cart)
	if err == nil {
		t.Fatal("expected stock conflict")
	}
	if got := CategoryFromError(err); got != enums.ValidationOutOfStock {
		t.Fatalf("unexpected category: %s", got)
	}
}

func TestResolveCollectsAllIssuesWithDominantCategory(t *testing.T) {
	t.Parallel()

	artwork := publishedArtwork(100000)
	catalog := &fakeCatalog{artworks: map[uuid.UUID]*models.Artwork{artwork.ID: artwork}}
	holds := &fakeHolds{held: map[uuid.UUID]bool{artwork.ID: true}}
	r := newTestResolver(t, catalog, holds)

	missingEdition := uuid.New()
	cart := &models.CartRecord{
		ID:       uuid.New(),
		Currency: enums.CurrencyEUR,
		Items: []models.CartItem{
			{ID: uuid.New(), Kind: enums.ItemKindUnique, ArtworkID: &artwork.ID, Qty: 1},
			{ID: uuid.New(), Kind: enums.ItemKindDigital, EditionID: &missingEdition, Qty: 1},
		},
	}

	_, err := r.Resolve(context.Background(), cart)
	if err == nil {
		t.Fatal("expected conflict for both lines")
	}

	// A reservation is the most actionable signal; it must win over the
	// plainly invalid second line.
	if got := CategoryFromError(err); got != enums.ValidationItemReserved {
		t.Fatalf("unexpected dominant category: %s", got)
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("unexpected error type: %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("unexpected details: %+v", typed.Details())
	}
	issues, ok := details["issues"].([]Issue)
	if !ok || len(issues) != 2 {
		t.Fatalf("expected both issues reported, got %+v", details["issues"])
	}
}

func TestResolveRejectsUniqueQtyAboveOne(t *testing.T) {
	t.Parallel()

	artwork := publishedArtwork(100000)
	catalog := &fakeCatalog{artworks: map[uuid.UUID]*models.Artwork{artwork.ID: artwork}}
	r := newTestResolver(t, catalog, &fakeHolds{})

	cart := &models.CartRecord{
		ID:       uuid.New(),
		Currency: enums.CurrencyEUR,
		Items: []models.CartItem{
			{ID: uuid.New(), Kind: enums.ItemKindUnique, ArtworkID: &artwork.ID, Qty: 2},
		},
	}

	_, err := r.Resolve(context.Background(), cart)
	if err == nil {
		t.Fatal("expected quantity rejection")
	}
	if got := CategoryFromError(err); got != enums.ValidationItemInvalid {
		t.Fatalf("unexpected category: %s", got)
	}
}

func TestResolveRejectsSoldArtwork(t *testing.T) {
	t.Parallel()

	artwork := publishedArtwork(100000)
	artwork.Status = enums.ArtworkStatusSold
	catalog := &fakeCatalog{artworks: map[uuid.UUID]*models.Artwork{artwork.ID: artwork}}
	r := newTestResolver(t, catalog, &fakeHolds{})

	cart := &models.CartRecord{
		ID:       uuid.New(),
		Currency: enums.CurrencyEUR,
		Items: []models.CartItem{
			{ID: uuid.New(), Kind: enums.ItemKindUnique, ArtworkID: &artwork.ID, Qty: 1},
		},
	}

	_, err := r.Resolve(context.Background(), cart)
	if err == nil {
		t.Fatal("expected sold artwork rejection")
	}
	if got := CategoryFromError(err); got != enums.ValidationItemInvalid {
		t.Fatalf("unexpected category: %s", got)
	}
}

func TestResolveCatalogOutagePropagates(t *testing.T) {
	t.Parallel()

	artworkID := uuid.New()
	catalog := &fakeCatalog{loadErr: pkgerrors.New(pkgerrors.CodeDependency, "database unavailable")}
	r := newTestResolver(t, catalog, &fakeHolds{})

	cart := &models.CartRecord{
		ID:       uuid.New(),
		Currency: enums.CurrencyEUR,
		Items: []models.CartItem{
			{ID: uuid.New(), Kind: enums.ItemKindUnique, ArtworkID: &artworkID, Qty: 1},
		},
	}

	_, err := r.Resolve(context.Background(), cart)
	if err == nil {
		t.Fatal("expected dependency failure")
	}
	// An outage is retryable; it must not surface as a permanently invalid
	// cart line.
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := CategoryFromError(err); got != "" {
		t.Fatalf("outage must not carry a validation category, got %s", got)
	}
}

func TestResolveEmptyCart(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, &fakeCatalog{}, &fakeHolds{})

	_, err := r.Resolve(context.Background(), &models.CartRecord{ID: uuid.New(), Currency: enums.CurrencyEUR})
	if err == nil {
		t.Fatal("expected empty cart rejection")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}
