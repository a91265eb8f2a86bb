package catalog_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdidvp/shelfready/internal/adapters/outbound/catalog"
	"github.com/abdidvp/shelfready/internal/domain"
)

const productJSON = `{"product": {
  "id": "42",
  "title": "Linen Throw",
  "body_html": "<p>Soft.</p>",
  "vendor": "Loom",
  "product_type": "",
  "tags": "linen, throw",
  "metafields_global_title_tag": "Linen Throw | Loom",
  "images": [{"id": "7", "src": "https://cdn.example/7.jpg", "alt": ""}],
  "metafields": [{"namespace": "custom", "key": "material", "value": "linen"}]
}}`

type recorded struct {
	method string
	path   string
	token  string
	body   map[string]any
}

type fakeShop struct {
	mu       sync.Mutex
	requests []recorded
	handler  func(w http.ResponseWriter, r *http.Request) bool
}

func (s *fakeShop) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recorded{method: r.Method, path: r.URL.Path, token: r.Header.Get("X-Shopify-Access-Token")}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &rec.body)
	}
	s.mu.Lock()
	s.requests = append(s.requests, rec)
	s.mu.Unlock()

	if s.handler != nil && s.handler(w, r) {
		return
	}
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/products/42.json":
		io.WriteString(w, productJSON)
	case r.Method == http.MethodGet && r.URL.Path == "/products/42/collections.json":
		io.WriteString(w, `{"collections": [{"handle": "home"}, {"handle": "sale"}]}`)
	case r.Method == http.MethodPut && r.URL.Path == "/products/42.json":
		io.WriteString(w, productJSON)
	case r.Method == http.MethodPost && r.URL.Path == "/collects.json":
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"collect": {}}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"errors": "Not Found"}`)
	}
}

func newHTTPCatalog(t *testing.T, shop *fakeShop) *catalog.HTTPCatalog {
	t.Helper()
	srv := httptest.NewServer(shop)
	t.Cleanup(srv.Close)
	log, _ := test.NewNullLogger()
	return catalog.NewHTTPCatalog(catalog.HTTPOptions{BaseURL: srv.URL + "/", Token: "shpat_test"}, log)
}

func TestHTTPCatalog_FetchListing(t *testing.T) {
	shop := &fakeShop{}
	c := newHTTPCatalog(t, shop)

	l, err := c.FetchListing(context.Background(), "42")

	require.NoError(t, err)
	assert.Equal(t, "42", l.ID)
	assert.Equal(t, "Linen Throw", l.Title)
	assert.Equal(t, []string{"linen", "throw"}, l.Tags)
	assert.Equal(t, "Linen Throw | Loom", l.SEOTitle)
	assert.Equal(t, []domain.Image{{ID: "7", URL: "https://cdn.example/7.jpg"}}, l.Images)
	assert.Equal(t, map[string]string{"custom.material": "linen"}, l.Metafields)
	assert.Equal(t, []string{"home", "sale"}, l.Collections)
	assert.Equal(t, "shpat_test", shop.requests[0].token)
}

func TestHTTPCatalog_FetchMissingListing(t *testing.T) {
	c := newHTTPCatalog(t, &fakeShop{})
	_, err := c.FetchListing(context.Background(), "404")
	assert.ErrorIs(t, err, domain.ErrListingNotFound)
}

func TestHTTPCatalog_EscapesListingID(t *testing.T) {
	var paths []string
	shop := &fakeShop{handler: func(w http.ResponseWriter, r *http.Request) bool {
		paths = append(paths, r.URL.EscapedPath())
		return false
	}}
	c := newHTTPCatalog(t, shop)

	_, err := c.FetchListing(context.Background(), "42/../collects")
	assert.ErrorIs(t, err, domain.ErrListingNotFound)

	_, err = c.MutateListing(context.Background(), "7/../../collects", domain.ListingUpdate{Vendor: domain.StringPtr("Loom")})
	assert.ErrorIs(t, err, domain.ErrListingNotFound)

	assert.Equal(t, []string{
		"/products/42%2F..%2Fcollects.json",
		"/products/7%2F..%2F..%2Fcollects.json",
	}, paths)
}

func TestHTTPCatalog_MutateSendsOnlyChangedFields(t *testing.T) {
	shop := &fakeShop{}
	c := newHTTPCatalog(t, shop)
	vendor := "Loom & Co"

	res, err := c.MutateListing(context.Background(), "42", domain.ListingUpdate{
		Vendor:         &vendor,
		Tags:           []string{"linen", "throw", "blanket"},
		ImageAltText:   map[string]string{"7": "Linen Throw"},
		AddCollections: []string{"home"},
	})

	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, shop.requests, 2)

	put := shop.requests[0]
	assert.Equal(t, http.MethodPut, put.method)
	product := put.body["product"].(map[string]any)
	assert.Equal(t, "Loom & Co", product["vendor"])
	assert.Equal(t, "linen, throw, blanket", product["tags"])
	assert.NotContains(t, product, "title")
	assert.Equal(t, []any{map[string]any{"id": "7", "alt": "Linen Throw"}}, product["images"])

	post := shop.requests[1]
	assert.Equal(t, "/collects.json", post.path)
	assert.Equal(t, map[string]any{"product_id": "42", "collection_handle": "home"}, post.body["collect"])
}

func TestHTTPCatalog_ValidationErrorsBecomeFieldErrors(t *testing.T) {
	shop := &fakeShop{handler: func(w http.ResponseWriter, r *http.Request) bool {
		if r.Method != http.MethodPut {
			return false
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"errors": {"title": ["can't be blank", "is too short"], "handle": ["is taken"]}}`)
		return true
	}}
	c := newHTTPCatalog(t, shop)
	empty := ""

	res, err := c.MutateListing(context.Background(), "42", domain.ListingUpdate{Title: &empty, AddCollections: []string{"home"}})

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "title: can't be blank; title: is too short; handle: is taken", res.ErrorMessage())
	assert.Len(t, shop.requests, 1, "collections are not touched after a rejected update")
}

func TestHTTPCatalog_PlainErrorMessage(t *testing.T) {
	shop := &fakeShop{handler: func(w http.ResponseWriter, r *http.Request) bool {
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"errors": "Product is archived"}`)
		return true
	}}
	c := newHTTPCatalog(t, shop)
	vendor := "Loom"

	res, err := c.MutateListing(context.Background(), "42", domain.ListingUpdate{Vendor: &vendor})

	require.NoError(t, err)
	assert.Equal(t, "Product is archived", res.ErrorMessage())
}

func TestHTTPCatalog_ServerErrorIsCallFailure(t *testing.T) {
	shop := &fakeShop{handler: func(w http.ResponseWriter, r *http.Request) bool {
		w.WriteHeader(http.StatusBadGateway)
		return true
	}}
	c := newHTTPCatalog(t, shop)

	_, err := c.FetchListing(context.Background(), "42")
	assert.Error(t, err)
}

func writeCatalog(t *testing.T, listings ...domain.ListingSnapshot) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	data, err := json.Marshal(listings)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestFileCatalog_FetchAndMutate(t *testing.T) {
	path := writeCatalog(t,
		domain.ListingSnapshot{ID: "p1", Title: "Throw", Images: []domain.Image{{ID: "i1", URL: "https://cdn.example/1.jpg"}}},
		domain.ListingSnapshot{ID: "p2", Title: "Pillow"},
	)
	c := catalog.NewFileCatalog(path)
	ctx := context.Background()
	vendor := "Loom"

	res, err := c.MutateListing(ctx, "p1", domain.ListingUpdate{
		Vendor:         &vendor,
		ImageAltText:   map[string]string{"i1": "Throw"},
		AddCollections: []string{"home"},
	})
	require.NoError(t, err)
	require.True(t, res.Success)

	reopened := catalog.NewFileCatalog(path)
	l, err := reopened.FetchListing(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Loom", l.Vendor)
	assert.Equal(t, "Throw", l.Images[0].AltText)
	assert.Equal(t, []string{"home"}, l.Collections)

	all, err := reopened.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestFileCatalog_RejectsBlankTitle(t *testing.T) {
	c := catalog.NewFileCatalog(writeCatalog(t, domain.ListingSnapshot{ID: "p1", Title: "Throw"}))
	blank := "  "

	res, err := c.MutateListing(context.Background(), "p1", domain.ListingUpdate{Title: &blank})

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "title: can't be blank", res.ErrorMessage())
	l, _ := c.FetchListing(context.Background(), "p1")
	assert.Equal(t, "Throw", l.Title)
}

func TestFileCatalog_MissingListing(t *testing.T) {
	c := catalog.NewFileCatalog(filepath.Join(t.TempDir(), "absent.json"))

	_, err := c.FetchListing(context.Background(), "p1")
	assert.ErrorIs(t, err, domain.ErrListingNotFound)

	_, err = c.MutateListing(context.Background(), "p1", domain.ListingUpdate{})
	assert.ErrorIs(t, err, domain.ErrListingNotFound)
}
