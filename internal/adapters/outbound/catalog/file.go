package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/abdidvp/shelfready/internal/domain"
)

// FileCatalog keeps listings in a JSON file, one array of products. It is
// meant for offline runs and demos; mutations rewrite the whole file.
type FileCatalog struct {
	path string
	mu   sync.Mutex
}

func NewFileCatalog(path string) *FileCatalog {
	return &FileCatalog{path: path}
}

func (c *FileCatalog) FetchListing(_ context.Context, id string) (*domain.ListingSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	listings, err := c.load()
	if err != nil {
		return nil, err
	}
	for _, l := range listings {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, domain.ErrListingNotFound
}

// List returns every listing in file order.
func (c *FileCatalog) List(_ context.Context) ([]domain.ListingSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

func (c *FileCatalog) MutateListing(_ context.Context, id string, u domain.ListingUpdate) (domain.MutationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	listings, err := c.load()
	if err != nil {
		return domain.MutationResult{}, err
	}
	idx := -1
	for i := range listings {
		if listings[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.MutationResult{}, domain.ErrListingNotFound
	}
	if errs := validate(u); len(errs) > 0 {
		return domain.MutationResult{Errors: errs}, nil
	}

	listings[idx] = u.Apply(listings[idx])
	if err := c.save(listings); err != nil {
		return domain.MutationResult{}, err
	}
	return domain.MutationResult{Success: true}, nil
}

// validate mirrors the checks a real catalog applies to writes.
func validate(u domain.ListingUpdate) []domain.FieldError {
	var errs []domain.FieldError
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		errs = append(errs, domain.FieldError{Field: domain.FieldTitle, Message: "can't be blank"})
	}
	if u.Title != nil && len([]rune(*u.Title)) > 255 {
		errs = append(errs, domain.FieldError{Field: domain.FieldTitle, Message: "is too long (maximum is 255 characters)"})
	}
	for _, img := range u.AddImages {
		if img.URL == "" {
			errs = append(errs, domain.FieldError{Field: domain.FieldImages, Message: "src can't be blank"})
		}
	}
	return errs
}

func (c *FileCatalog) load() ([]domain.ListingSnapshot, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	var listings []domain.ListingSnapshot
	if err := json.Unmarshal(data, &listings); err != nil {
		return nil, fmt.Errorf("parsing catalog file %s: %w", c.path, err)
	}
	return listings, nil
}

// save writes through a temp file so a crash never leaves a truncated catalog.
func (c *FileCatalog) save(listings []domain.ListingSnapshot) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(listings, "", "  ")
	if err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}
