package services

import (
	"context"
	"strconv"
	"sync"

	"github.com/FloFRCD/nutrition-app-sub001/llm"
	"github.com/FloFRCD/nutrition-app-sub001/openfoodfacts"
	"github.com/FloFRCD/nutrition-app-sub001/vision"

	"github.com/tmc/langchaingo/llms"
)

type fakeChat struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   int
}

func (f *fakeChat) Chat(_ context.Context, _ []llm.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	r := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return r, nil
}

func (f *fakeChat) Model() string { return "fake-model" }

func (f *fakeChat) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeFoodDB struct {
	mu       sync.Mutex
	search   map[string][]openfoodfacts.Product
	products map[string]*openfoodfacts.Product
	err      error
	queries  []string
}

func (f *fakeFoodDB) Search(_ context.Context, query string, _ int) ([]openfoodfacts.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.search[query], nil
}

func (f *fakeFoodDB) Product(_ context.Context, barcode string) (*openfoodfacts.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[barcode]
	if !ok {
		return nil, openfoodfacts.ErrNotFound
	}
	return p, nil
}

func product(code, name string, kcal float64) openfoodfacts.Product {
	return openfoodfacts.Product{
		Code:        code,
		ProductName: name,
		Nutriments:  openfoodfacts.Nutriments{EnergyKcal100g: openfoodfacts.Float(kcal), Proteins100g: 3},
	}
}

// fakeModel is an llms.Model that answers every prompt with reply.
type fakeModel struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (m *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				m.prompts = append(m.prompts, text.Text)
			}
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func (m *fakeModel) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

type fakeLabeler struct {
	labels []vision.Label
	err    error
}

func (f *fakeLabeler) DetectLabels(_ context.Context, _ vision.Image) ([]vision.Label, error) {
	return f.labels, f.err
}

type fakeUploader struct {
	mu      sync.Mutex
	uploads []string
	err     error
}

func (f *fakeUploader) Upload(_ context.Context, userID string, img vision.Image) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	url := "https://photos.example/" + userID + "/" + strconv.Itoa(len(f.uploads)) + img.Ext()
	f.uploads = append(f.uploads, url)
	return url, nil
}

// pngURI is a data URI holding a few bytes labelled as PNG.
const pngURI = "data:image/png;base64,iVBORw0KGgo="
