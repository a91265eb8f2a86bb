// Package catalog reads and writes listings in the store's product catalog.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/abdidvp/shelfready/internal/domain"
	"github.com/abdidvp/shelfready/internal/logging"
)

// HTTPOptions configures the REST catalog client.
type HTTPOptions struct {
	BaseURL  string
	Token    string
	RetryMax int
	Timeout  time.Duration
}

// HTTPCatalog talks to an Admin REST style product API:
//
//	GET  /products/{id}.json
//	GET  /products/{id}/collections.json
//	PUT  /products/{id}.json
//	POST /collects.json
type HTTPCatalog struct {
	base   string
	token  string
	client *retryablehttp.Client
}

func NewHTTPCatalog(opts HTTPOptions, log logrus.FieldLogger) *HTTPCatalog {
	client := retryablehttp.NewClient()
	client.RetryMax = opts.RetryMax
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.Logger = logging.Leveled{Log: log.WithField("component", "catalog")}
	if opts.Timeout > 0 {
		client.HTTPClient.Timeout = opts.Timeout
	}
	return &HTTPCatalog{base: strings.TrimRight(opts.BaseURL, "/"), token: opts.Token, client: client}
}

func (c *HTTPCatalog) FetchListing(ctx context.Context, id string) (*domain.ListingSnapshot, error) {
	status, body, err := c.do(ctx, http.MethodGet, productPath(id, ".json"), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, domain.ErrListingNotFound
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("fetching product %s: %s", id, statusError(status, body))
	}
	listing := parseProduct(gjson.GetBytes(body, "product"))

	status, body, err = c.do(ctx, http.MethodGet, productPath(id, "/collections.json"), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusOK {
		for _, h := range gjson.GetBytes(body, "collections.#.handle").Array() {
			listing.Collections = append(listing.Collections, h.String())
		}
	}
	return &listing, nil
}

// MutateListing writes scalar fields, tags and images in one product update,
// then adds collection memberships one by one. Validation failures come back
// as field errors rather than an error.
func (c *HTTPCatalog) MutateListing(ctx context.Context, id string, u domain.ListingUpdate) (domain.MutationResult, error) {
	if product := productPayload(id, u); len(product) > 1 {
		payload, err := json.Marshal(map[string]any{"product": product})
		if err != nil {
			return domain.MutationResult{}, err
		}
		res, err := c.write(ctx, http.MethodPut, productPath(id, ".json"), payload)
		if err != nil || !res.Success {
			return res, err
		}
	}
	for _, handle := range u.AddCollections {
		payload, err := json.Marshal(map[string]any{"collect": map[string]string{"product_id": id, "collection_handle": handle}})
		if err != nil {
			return domain.MutationResult{}, err
		}
		res, err := c.write(ctx, http.MethodPost, "/collects.json", payload)
		if err != nil || !res.Success {
			return res, err
		}
	}
	return domain.MutationResult{Success: true}, nil
}

// productPath escapes id so it always addresses a single product.
func productPath(id, suffix string) string {
	return "/products/" + url.PathEscape(id) + suffix
}

func (c *HTTPCatalog) write(ctx context.Context, method, path string, payload []byte) (domain.MutationResult, error) {
	status, body, err := c.do(ctx, method, path, payload)
	if err != nil {
		return domain.MutationResult{}, err
	}
	switch {
	case status >= 200 && status < 300:
		return domain.MutationResult{Success: true}, nil
	case status == http.StatusNotFound:
		return domain.MutationResult{}, domain.ErrListingNotFound
	case status == http.StatusUnprocessableEntity:
		return domain.MutationResult{Errors: fieldErrors(body)}, nil
	default:
		return domain.MutationResult{}, fmt.Errorf("%s %s: %s", method, path, statusError(status, body))
	}
}

func (c *HTTPCatalog) do(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("X-Shopify-Access-Token", c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("calling catalog: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading catalog response: %w", err)
	}
	return resp.StatusCode, data, nil
}

func parseProduct(p gjson.Result) domain.ListingSnapshot {
	l := domain.ListingSnapshot{
		ID:              p.Get("id").String(),
		Title:           p.Get("title").String(),
		DescriptionHTML: p.Get("body_html").String(),
		Vendor:          p.Get("vendor").String(),
		ProductType:     p.Get("product_type").String(),
		Tags:            domain.SplitList(p.Get("tags").String()),
		SEOTitle:        p.Get("metafields_global_title_tag").String(),
		SEODescription:  p.Get("metafields_global_description_tag").String(),
	}
	p.Get("images").ForEach(func(_, img gjson.Result) bool {
		l.Images = append(l.Images, domain.Image{
			ID:      img.Get("id").String(),
			URL:     img.Get("src").String(),
			AltText: img.Get("alt").String(),
		})
		return true
	})
	p.Get("metafields").ForEach(func(_, mf gjson.Result) bool {
		if l.Metafields == nil {
			l.Metafields = make(map[string]string)
		}
		l.Metafields[mf.Get("namespace").String()+"."+mf.Get("key").String()] = mf.Get("value").String()
		return true
	})
	return l
}

// productPayload builds the product body for a PUT. It always carries the id.
func productPayload(id string, u domain.ListingUpdate) map[string]any {
	p := map[string]any{"id": id}
	set := func(key string, v *string) {
		if v != nil {
			p[key] = *v
		}
	}
	set("title", u.Title)
	set("body_html", u.DescriptionHTML)
	set("vendor", u.Vendor)
	set("product_type", u.ProductType)
	set("metafields_global_title_tag", u.SEOTitle)
	set("metafields_global_description_tag", u.SEODescription)
	if u.Tags != nil {
		p["tags"] = domain.JoinList(u.Tags)
	}

	var images []map[string]string
	ids := make([]string, 0, len(u.ImageAltText))
	for imageID := range u.ImageAltText {
		ids = append(ids, imageID)
	}
	sort.Strings(ids)
	for _, imageID := range ids {
		images = append(images, map[string]string{"id": imageID, "alt": u.ImageAltText[imageID]})
	}
	for _, img := range u.AddImages {
		images = append(images, map[string]string{"src": img.URL, "alt": img.AltText})
	}
	if len(images) > 0 {
		p["images"] = images
	}
	return p
}

// fieldErrors reads a 422 body. The API answers either
// {"errors": {"field": ["message", ...]}} or {"errors": "message"}.
func fieldErrors(body []byte) []domain.FieldError {
	errs := gjson.GetBytes(body, "errors")
	if !errs.IsObject() {
		msg := errs.String()
		if msg == "" {
			msg = "the catalog rejected the update"
		}
		return []domain.FieldError{{Message: msg}}
	}
	var out []domain.FieldError
	errs.ForEach(func(field, messages gjson.Result) bool {
		if !messages.IsArray() {
			out = append(out, domain.FieldError{Field: field.String(), Message: messages.String()})
			return true
		}
		for _, m := range messages.Array() {
			out = append(out, domain.FieldError{Field: field.String(), Message: m.String()})
		}
		return true
	})
	return out
}

func statusError(status int, body []byte) string {
	if msg := gjson.GetBytes(body, "errors").String(); msg != "" {
		return fmt.Sprintf("status %d: %s", status, msg)
	}
	return fmt.Sprintf("status %d", status)
}
