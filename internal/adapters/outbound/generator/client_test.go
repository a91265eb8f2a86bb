package generator_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdidvp/shelfready/internal/adapters/outbound/generator"
	"github.com/abdidvp/shelfready/internal/domain"
)

var listing = &domain.ListingSnapshot{
	ID:              "p1",
	Title:           "Linen Throw",
	Vendor:          "Loom",
	DescriptionHTML: "<p>Soft <b>linen</b> throw.</p>",
}

func newClient(t *testing.T, h http.HandlerFunc, opts generator.Options) *generator.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts.Endpoint = srv.URL
	log, _ := test.NewNullLogger()
	c, err := generator.New(opts, log)
	require.NoError(t, err)
	return c
}

func chatReply(w http.ResponseWriter, content string) {
	json.NewEncoder(w).Encode(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": content}}},
	})
}

func TestNew_RequiresEndpoint(t *testing.T) {
	log, _ := test.NewNullLogger()
	_, err := generator.New(generator.Options{}, log)
	assert.Error(t, err)
}

func TestGenerate_TextKindsUseChatCompletions(t *testing.T) {
	var got map[string]any
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &got))
		chatReply(w, "\"Handwoven Linen Throw Blanket\"")
	}, generator.Options{APIKey: "sk-test", Model: "small-model"})

	out, err := c.Generate(context.Background(), domain.GenerationRequest{
		Kind: domain.GenerateTitle, Listing: listing, Options: map[string]string{"min_length": "20", "max_length": "70"},
	})

	require.NoError(t, err)
	assert.Equal(t, "Handwoven Linen Throw Blanket", out.Text)
	assert.Equal(t, "small-model", got["model"])
	messages := got["messages"].([]any)
	require.Len(t, messages, 2)
	user := messages[1].(map[string]any)["content"].(string)
	assert.Contains(t, user, "between 20 and 70 characters")
	assert.Contains(t, user, "Description: Soft linen throw.")
}

func TestGenerate_TagsAreSplitAndCapped(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		chatReply(w, "- linen\n- throw blanket\n3d printed, Linen, cozy, extra")
	}, generator.Options{})

	out, err := c.Generate(context.Background(), domain.GenerationRequest{
		Kind: domain.GenerateTags, Listing: listing, Options: map[string]string{"count": "4"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"linen", "throw blanket", "3d printed", "cozy"}, out.Items)
}

func TestGenerate_ErrorStatusCarriesProviderMessage(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error": {"message": "context length exceeded"}}`)
	}, generator.Options{})

	_, err := c.Generate(context.Background(), domain.GenerationRequest{Kind: domain.GenerateDescription, Listing: listing})

	assert.EqualError(t, err, "generator returned status 400: context length exceeded")
}

func TestGenerate_EmptyContent(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) { chatReply(w, "  ") }, generator.Options{})
	_, err := c.Generate(context.Background(), domain.GenerationRequest{Kind: domain.GenerateSEODescription, Listing: listing})
	assert.EqualError(t, err, "the generator returned no content")
}

func TestGenerate_ImagePollsUntilDone(t *testing.T) {
	var polls int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/images/generations":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Product photo of Linen Throw", body["prompt"])
			assert.Equal(t, "studio", body["style"])
			w.WriteHeader(http.StatusAccepted)
			io.WriteString(w, `{"id": "job-1", "status": "queued"}`)
		case r.Method == http.MethodGet && r.URL.Path == "/images/generations/job-1":
			if atomic.AddInt32(&polls, 1) < 3 {
				io.WriteString(w, `{"id": "job-1", "status": "running"}`)
				return
			}
			io.WriteString(w, `{"id": "job-1", "status": "succeeded", "data": [{"url": "https://img.example/1.png"}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}, generator.Options{PollInterval: time.Millisecond, MaxPollAttempts: 5})

	out, err := c.Generate(context.Background(), domain.GenerationRequest{
		Kind: domain.GenerateImage, Listing: listing,
		Options: map[string]string{"prompt": "Product photo of Linen Throw", "style": "studio"},
	})

	require.NoError(t, err)
	assert.Equal(t, "https://img.example/1.png", out.ImageURL)
	assert.EqualValues(t, 3, atomic.LoadInt32(&polls))
}

func TestGenerate_ImagePollingIsBounded(t *testing.T) {
	var polls int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			io.WriteString(w, `{"id": "job-2", "status": "queued"}`)
			return
		}
		atomic.AddInt32(&polls, 1)
		io.WriteString(w, `{"id": "job-2", "status": "running"}`)
	}, generator.Options{PollInterval: time.Millisecond, MaxPollAttempts: 4})

	_, err := c.Generate(context.Background(), domain.GenerationRequest{Kind: domain.GenerateImage, Listing: listing})

	assert.EqualError(t, err, "image generation did not finish after 4 polls")
	assert.EqualValues(t, 4, atomic.LoadInt32(&polls))
}

func TestGenerate_ImageJobFailure(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			io.WriteString(w, `{"id": "job-3"}`)
			return
		}
		io.WriteString(w, `{"id": "job-3", "status": "failed", "error": {"message": "content policy"}}`)
	}, generator.Options{PollInterval: time.Millisecond})

	_, err := c.Generate(context.Background(), domain.GenerationRequest{Kind: domain.GenerateImage, Listing: listing})

	assert.EqualError(t, err, "image job job-3 failed: content policy")
}

func TestGenerate_SynchronousImage(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data": [{"url": "https://img.example/now.png"}]}`)
	}, generator.Options{})

	out, err := c.Generate(context.Background(), domain.GenerationRequest{Kind: domain.GenerateImage, Listing: listing})

	require.NoError(t, err)
	assert.Equal(t, "https://img.example/now.png", out.ImageURL)
}

func TestPrompt_UnsupportedKind(t *testing.T) {
	_, err := generator.Prompt(domain.GenerationRequest{Kind: "poem", Listing: listing})
	assert.Error(t, err)
}

func TestUnconfigured_AlwaysFails(t *testing.T) {
	_, err := generator.Unconfigured{}.Generate(context.Background(), domain.GenerationRequest{Kind: domain.GenerateTitle, Listing: listing})
	require.Error(t, err)
	assert.Equal(t, "AI generation is not configured", domain.UserMessage(err))
}
