package ripley

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/GadCoder/Ripley-Scrapper/internal/domain"
	domainerrors "github.com/GadCoder/Ripley-Scrapper/internal/errors"
	"github.com/GadCoder/Ripley-Scrapper/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return st
}

// pageJSON builds a catalog page response holding one product per SKU.
func pageJSON(totalPages int, skus ...string) string {
	products := make([]string, 0, len(skus))
	for _, sku := range skus {
		products = append(products, fmt.Sprintf(
			`{"partNumber": %q, "name": "COLCHON ROSEN VESUBIO 2 PLZ", "manufacturer": "ROSEN", "prices": {"listPrice": 4599, "offerPrice": 2799}}`,
			sku,
		))
	}
	return fmt.Sprintf(
		`{"products": [%s], "pagination": {"totalPages": %d, "totalResults": %d, "pageSize": 48}}`,
		strings.Join(products, ","), totalPages, len(skus),
	)
}

// catalogServer serves fixed page bodies and records which pages were
// requested. Unknown pages return an empty product list.
type catalogServer struct {
	mu        sync.Mutex
	pages     map[int]string
	requested []int
}

func (cs *catalogServer) handler(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	cs.mu.Lock()
	cs.requested = append(cs.requested, page)
	body, ok := cs.pages[page]
	cs.mu.Unlock()

	if !ok {
		body = `{"products": [], "pagination": {"totalPages": 0, "totalResults": 0, "pageSize": 0}}`
	}
	w.Write([]byte(body))
}

func (cs *catalogServer) requestedPages() []int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return append([]int(nil), cs.requested...)
}

func newTestScraper(t *testing.T, cs *catalogServer) (*Scraper, *store.Store) {
	t.Helper()

	client, server := newTestClient(t, cs.handler)
	t.Cleanup(server.Close)
	t.Cleanup(client.Close)

	st := newTestStore(t)
	return NewScraper(client, st, nil), st
}

func TestScraper_ScrapeAllPages(t *testing.T) {
	cs := &catalogServer{pages: map[int]string{
		1: pageJSON(3, "SKU001", "SKU002"),
		2: pageJSON(3, "SKU003", "SKU004"),
		3: pageJSON(3, "SKU005", "SKU006"),
	}}
	scraper, st := newTestScraper(t, cs)

	result, err := scraper.Scrape(context.Background(), ScrapeOptions{Category: "dormitorio"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Products) != 6 {
		t.Fatalf("expected 6 products, got %d", len(result.Products))
	}
	if result.PagesFetched != 3 {
		t.Errorf("expected 3 pages fetched, got %d", result.PagesFetched)
	}
	if result.TotalPages != 3 {
		t.Errorf("expected 3 total pages, got %d", result.TotalPages)
	}
	if !strings.HasPrefix(result.SessionID, "scrape-") {
		t.Errorf("unexpected session id %q", result.SessionID)
	}

	// Ids are sequential positions
	for i, p := range result.Products {
		if p.ID != i+1 {
			t.Errorf("product %d has id %d, want %d", i, p.ID, i+1)
		}
	}

	// Final checkpoint is marked completed
	cp, err := st.GetCheckpoint(context.Background(), "dormitorio")
	if err != nil {
		t.Fatalf("expected final checkpoint: %v", err)
	}
	if !cp.Completed {
		t.Error("final checkpoint should be marked completed")
	}
	if cp.LastPage != 3 {
		t.Errorf("expected checkpoint last page 3, got %d", cp.LastPage)
	}
	if cp.TotalProducts != 6 {
		t.Errorf("expected checkpoint with 6 products, got %d", cp.TotalProducts)
	}
}

func TestScraper_StopsOnEmptyPage(t *testing.T) {
	// The API reports 5 pages but page 3 comes back empty
	cs := &catalogServer{pages: map[int]string{
		1: pageJSON(5, "SKU001"),
		2: pageJSON(5, "SKU002"),
	}}
	scraper, _ := newTestScraper(t, cs)

	result, err := scraper.Scrape(context.Background(), ScrapeOptions{Category: "dormitorio"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Products) != 2 {
		t.Errorf("expected 2 products, got %d", len(result.Products))
	}
	if result.PagesFetched != 2 {
		t.Errorf("expected 2 pages fetched, got %d", result.PagesFetched)
	}
}

func TestScraper_MaxPages(t *testing.T) {
	cs := &catalogServer{pages: map[int]string{
		1: pageJSON(5, "SKU001", "SKU002"),
		2: pageJSON(5, "SKU003", "SKU004"),
		3: pageJSON(5, "SKU005", "SKU006"),
	}}
	scraper, _ := newTestScraper(t, cs)

	result, err := scraper.Scrape(context.Background(), ScrapeOptions{
		Category: "dormitorio",
		MaxPages: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.PagesFetched != 2 {
		t.Errorf("expected 2 pages fetched, got %d", result.PagesFetched)
	}
	if len(result.Products) != 4 {
		t.Errorf("expected 4 products, got %d", len(result.Products))
	}

	pages := cs.requestedPages()
	for _, p := range pages {
		if p > 2 {
			t.Errorf("page %d should not have been requested", p)
		}
	}
}

func TestScraper_DeduplicatesBySKU(t *testing.T) {
	// SKU002 appears on both pages
	cs := &catalogServer{pages: map[int]string{
		1: pageJSON(2, "SKU001", "SKU002"),
		2: pageJSON(2, "SKU002", "SKU003"),
	}}
	scraper, _ := newTestScraper(t, cs)

	result, err := scraper.Scrape(context.Background(), ScrapeOptions{Category: "dormitorio"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Products) != 3 {
		t.Fatalf("expected 3 unique products, got %d", len(result.Products))
	}
	if result.Duplicates != 1 {
		t.Errorf("expected 1 duplicate removed, got %d", result.Duplicates)
	}

	wantOrder := []string{"SKU001", "SKU002", "SKU003"}
	for i, p := range result.Products {
		if p.SKU != wantOrder[i] {
			t.Errorf("position %d: got SKU %q, want %q", i, p.SKU, wantOrder[i])
		}
		if p.ID != i+1 {
			t.Errorf("position %d: got id %d, want %d", i, p.ID, i+1)
		}
	}
}

func TestScraper_SkipDedupe(t *testing.T) {
	// SKU002 appears on both pages and is kept
	cs := &catalogServer{pages: map[int]string{
		1: pageJSON(2, "SKU001", "SKU002"),
		2: pageJSON(2, "SKU002", "SKU003"),
	}}
	scraper, _ := newTestScraper(t, cs)

	result, err := scraper.Scrape(context.Background(), ScrapeOptions{
		Category:   "dormitorio",
		SkipDedupe: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Products) != 4 {
		t.Fatalf("expected 4 products, got %d", len(result.Products))
	}
	if result.Duplicates != 0 {
		t.Errorf("expected 0 duplicates reported, got %d", result.Duplicates)
	}
	for i, p := range result.Products {
		if p.ID != i+1 {
			t.Errorf("position %d: got id %d, want %d", i, p.ID, i+1)
		}
	}
}

func TestScraper_Resume(t *testing.T) {
	cs := &catalogServer{pages: map[int]string{
		1: pageJSON(2, "SKU001", "SKU002"),
		2: pageJSON(2, "SKU003", "SKU004"),
	}}
	scraper, st := newTestScraper(t, cs)

	// Simulate an interrupted run that finished page 1
	firstRun := []domain.ProductRecord{
		{ID: 1, SKU: "SKU001", Title: "COLCHON ROSEN VESUBIO 2 PLZ"},
		{ID: 2, SKU: "SKU002", Title: "COLCHON ROSEN VESUBIO 2 PLZ"},
	}
	err := st.SaveCheckpoint(context.Background(), &domain.ScrapeCheckpoint{
		Category:      "dormitorio",
		LastPage:      1,
		TotalProducts: 2,
		Products:      firstRun,
		Timestamp:     time.Now().Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("failed to seed checkpoint: %v", err)
	}

	result, err := scraper.Scrape(context.Background(), ScrapeOptions{
		Category: "dormitorio",
		Resume:   true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Resumed {
		t.Error("result should be marked resumed")
	}
	if len(result.Products) != 4 {
		t.Fatalf("expected 4 products, got %d", len(result.Products))
	}

	// Page 1 must not be fetched again
	for _, p := range cs.requestedPages() {
		if p == 1 {
			t.Error("page 1 should not be requested on resume")
		}
	}

	cp, err := st.GetCheckpoint(context.Background(), "dormitorio")
	if err != nil {
		t.Fatalf("expected checkpoint: %v", err)
	}
	if !cp.Completed {
		t.Error("checkpoint should be completed after resume finished")
	}
}

func TestScraper_Resume_NoCheckpoint(t *testing.T) {
	cs := &catalogServer{pages: map[int]string{}}
	scraper, _ := newTestScraper(t, cs)

	_, err := scraper.Scrape(context.Background(), ScrapeOptions{
		Category: "dormitorio",
		Resume:   true,
	})
	if !errors.Is(err, domainerrors.ErrNotFound) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestScraper_Resume_AlreadyCompleted(t *testing.T) {
	cs := &catalogServer{pages: map[int]string{}}
	scraper, st := newTestScraper(t, cs)

	err := st.SaveCheckpoint(context.Background(), &domain.ScrapeCheckpoint{
		Category:      "dormitorio",
		LastPage:      3,
		TotalProducts: 6,
		Completed:     true,
	})
	if err != nil {
		t.Fatalf("failed to seed checkpoint: %v", err)
	}

	_, err = scraper.Scrape(context.Background(), ScrapeOptions{
		Category: "dormitorio",
		Resume:   true,
	})
	if err == nil {
		t.Fatal("expected error for completed checkpoint")
	}
}

func TestScraper_PartialResultOnFailure(t *testing.T) {
	// Page 2 always fails
	cs := &catalogServer{pages: map[int]string{
		1: pageJSON(3, "SKU001", "SKU002"),
	}}
	failing := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		cs.handler(w, r)
	}

	client, server := newTestClient(t, failing)
	defer server.Close()
	defer client.Close()
	st := newTestStore(t)
	scraper := NewScraper(client, st, nil)

	result, err := scraper.Scrape(context.Background(), ScrapeOptions{Category: "dormitorio"})
	if err == nil {
		t.Fatal("expected error from failing page")
	}
	if !errors.Is(err, ErrServer) {
		t.Errorf("expected server error, got %v", err)
	}

	// Partial result still carries page 1
	if len(result.Products) != 2 {
		t.Errorf("expected 2 products from page 1, got %d", len(result.Products))
	}

	// Checkpoint allows a later resume and is not completed
	cp, cpErr := st.GetCheckpoint(context.Background(), "dormitorio")
	if cpErr != nil {
		t.Fatalf("expected checkpoint after failure: %v", cpErr)
	}
	if cp.Completed {
		t.Error("checkpoint should not be completed after failure")
	}
	if cp.LastPage != 1 {
		t.Errorf("expected checkpoint last page 1, got %d", cp.LastPage)
	}
}

func TestScraper_EmptyCategory(t *testing.T) {
	cs := &catalogServer{pages: map[int]string{}}
	scraper, _ := newTestScraper(t, cs)

	_, err := scraper.Scrape(context.Background(), ScrapeOptions{})
	if !errors.Is(err, ErrNoCategory) {
		t.Errorf("expected ErrNoCategory, got %v", err)
	}
}

func TestDedupeBySKU(t *testing.T) {
	products := []domain.ProductRecord{
		{ID: 1, SKU: "A"},
		{ID: 2, SKU: "B"},
		{ID: 3, SKU: "A"},
		{ID: 4, SKU: "C"},
		{ID: 5, SKU: "B"},
	}

	unique, duplicates := dedupeBySKU(products)

	if duplicates != 2 {
		t.Errorf("expected 2 duplicates, got %d", duplicates)
	}
	if len(unique) != 3 {
		t.Fatalf("expected 3 unique products, got %d", len(unique))
	}

	wantSKUs := []string{"A", "B", "C"}
	for i, p := range unique {
		if p.SKU != wantSKUs[i] {
			t.Errorf("position %d: got SKU %q, want %q", i, p.SKU, wantSKUs[i])
		}
		if p.ID != i+1 {
			t.Errorf("position %d: got id %d, want %d", i, p.ID, i+1)
		}
	}
}
