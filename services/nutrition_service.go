package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/FloFRCD/nutrition-app-sub001/fuzzy"
	"github.com/FloFRCD/nutrition-app-sub001/journal"
	"github.com/FloFRCD/nutrition-app-sub001/llm"
	"github.com/FloFRCD/nutrition-app-sub001/logger"
	"github.com/FloFRCD/nutrition-app-sub001/models"
	"github.com/FloFRCD/nutrition-app-sub001/openfoodfacts"
	"github.com/FloFRCD/nutrition-app-sub001/repository"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	maxEditDistance  = 2
	maxCandidates    = 50
	maxSearchQueries = 3
	searchPageSize   = 5
)

// ChatClient is the part of llm.Client the services use.
type ChatClient interface {
	Chat(ctx context.Context, messages []llm.Message) (string, error)
	Model() string
}

// FoodDatabase is the part of openfoodfacts.Client the services use.
type FoodDatabase interface {
	Search(ctx context.Context, query string, pageSize int) ([]openfoodfacts.Product, error)
	Product(ctx context.Context, barcode string) (*openfoodfacts.Product, error)
}

// NutritionService resolves foods to per-100 g nutrients: cache first, then
// Open Food Facts, then an LLM estimate. New results are cached.
type NutritionService struct {
	foods *repository.FoodRecordRepository
	aiLog *repository.AIResponseRepository
	off   FoodDatabase
	chat  ChatClient
}

// NewNutritionService wires the lookup chain. off and chat may be nil, which
// skips that source.
func NewNutritionService(foods *repository.FoodRecordRepository, aiLog *repository.AIResponseRepository, off FoodDatabase, chat ChatClient) *NutritionService {
	return &NutritionService{
		foods: foods,
		aiLog: aiLog,
		off:   off,
		chat:  chat,
	}
}

// Food returns a cached record by id.
func (s *NutritionService) Food(ctx context.Context, id uint) (*models.FoodRecord, error) {
	rec, err := s.foods.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoNutrition
	}
	return rec, err
}

// Estimates lists the logged model outputs for a food name, newest first.
func (s *NutritionService) Estimates(ctx context.Context, name string, limit int) ([]models.AIResponse, error) {
	query := fuzzy.Normalize(name)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	if limit <= 0 || limit > maxCandidates {
		limit = maxCandidates
	}
	return s.aiLog.ListByQuery(ctx, query, limit)
}

// FindCached returns the cached record closest to name within edit distance
// two, or nil. A non-empty brand restricts candidates to that exact brand.
// Storage errors are logged and reported as no match.
func (s *NutritionService) FindCached(ctx context.Context, name, brand string) *models.FoodRecord {
	query := fuzzy.Normalize(name)
	if query == "" {
		return nil
	}
	candidates, err := s.foods.Candidates(ctx, repository.CandidateQuery{
		NormalizedName:  query,
		NormalizedBrand: fuzzy.Normalize(brand),
		MaxLengthDiff:   maxEditDistance,
		Limit:           maxCandidates,
	})
	if err != nil {
		logger.Warn("food cache lookup failed", zap.String("query", query), zap.Error(err))
		return nil
	}

	best, dist, ok := fuzzy.Closest(query, candidates, func(r models.FoodRecord) string { return r.NormalizedName }, maxEditDistance)
	if !ok {
		return nil
	}
	logger.Debug("food cache hit", zap.String("query", query), zap.String("match", best.Name), zap.Int("distance", dist))
	return &best
}

// Lookup resolves name (and optional brand) to a cached or freshly fetched record.
func (s *NutritionService) Lookup(ctx context.Context, name, brand string) (*models.FoodRecord, error) {
	name = strings.TrimSpace(name)
	brand = strings.TrimSpace(brand)
	if name == "" {
		return nil, fmt.Errorf("%w: food name is required", ErrInvalidInput)
	}

	if rec := s.FindCached(ctx, name, brand); rec != nil {
		return rec, nil
	}

	if rec := s.fromOpenFoodFacts(ctx, name, brand); rec != nil {
		s.save(ctx, rec)
		return rec, nil
	}

	if rec := s.fromLLM(ctx, name, brand); rec != nil {
		s.save(ctx, rec)
		return rec, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNoNutrition, name)
}

func (s *NutritionService) save(ctx context.Context, rec *models.FoodRecord) {
	if err := s.foods.Save(ctx, rec); err != nil {
		logger.Error("failed to cache food record", zap.String("food", rec.Name), zap.Error(err))
	}
}

// searchQueries lists the Open Food Facts queries to try, most specific first.
func searchQueries(name, brand string) []string {
	var queries []string
	if brand != "" {
		full := name
		if !strings.HasPrefix(strings.ToLower(name), strings.ToLower(brand)) {
			full = brand + " " + name
		}
		queries = append(queries, full)

		parts := strings.Fields(name)
		if len(parts) > 1 {
			// brand plus the last word, usually the noun
			queries = append(queries, brand+" "+parts[len(parts)-1])
		}
	}
	queries = append(queries, name)

	unique := make([]string, 0, len(queries))
	seen := make(map[string]bool)
	for _, q := range queries {
		q = strings.TrimSpace(q)
		key := strings.ToLower(q)
		if q != "" && !seen[key] {
			unique = append(unique, q)
			seen[key] = true
		}
	}
	if len(unique) > maxSearchQueries {
		unique = unique[:maxSearchQueries]
	}
	return unique
}

func (s *NutritionService) fromOpenFoodFacts(ctx context.Context, name, brand string) *models.FoodRecord {
	if s.off == nil {
		return nil
	}
	for _, query := range searchQueries(name, brand) {
		logger.Info("searching Open Food Facts", zap.String("query", query))
		products, err := s.off.Search(ctx, query, searchPageSize)
		if err != nil {
			logger.Warn("Open Food Facts search failed", zap.String("query", query), zap.Error(err))
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		for _, p := range products {
			n := p.Nutrients()
			if n.Calories <= 0 {
				continue
			}
			rec := &models.FoodRecord{
				Name:     name,
				Brand:    brand,
				Barcode:  p.Code,
				Source:   models.SourceOpenFoodFacts,
				Verified: true,
			}
			rec.SetPer100g(n)
			logger.Info("nutrition fetched from Open Food Facts", zap.String("food", name), zap.String("query", query))
			return rec
		}
		logger.Warn("Open Food Facts returned no product with energy data", zap.String("query", query))
	}
	return nil
}

func (s *NutritionService) fromLLM(ctx context.Context, name, brand string) *models.FoodRecord {
	if s.chat == nil {
		return nil
	}
	logger.Info("using LLM to estimate nutrition", zap.String("food", name))

	raw, err := s.chat.Chat(ctx, llm.NutritionMessages(name, brand))
	if err != nil {
		logger.Warn("LLM nutrition estimate failed", zap.String("food", name), zap.Error(err))
		return nil
	}

	n, parseErr := llm.ParseNutrition(raw)
	parsed := datatypes.JSON("null")
	if parseErr == nil {
		if b, err := json.Marshal(n); err == nil {
			parsed = datatypes.JSON(b)
		}
	}
	s.logAIResponse(ctx, name, raw, parsed)

	if parseErr != nil {
		logger.Warn("unparseable LLM nutrition estimate", zap.String("food", name), zap.Error(parseErr))
		return nil
	}
	if n.Calories <= 0 {
		logger.Warn("LLM estimate has no calories", zap.String("food", name))
		return nil
	}

	rec := &models.FoodRecord{
		Name:   name,
		Brand:  brand,
		Source: models.SourceLLM,
	}
	rec.SetPer100g(n)
	logger.Info("nutrition estimated per 100g", zap.String("food", name), zap.Float64("kcal", n.Calories))
	return rec
}

func (s *NutritionService) logAIResponse(ctx context.Context, query, raw string, parsed datatypes.JSON) {
	if s.aiLog == nil {
		return
	}
	resp := &models.AIResponse{
		Query:           query,
		NormalizedQuery: fuzzy.Normalize(query),
		Model:           s.chat.Model(),
		Raw:             raw,
		Parsed:          parsed,
	}
	if err := s.aiLog.Create(ctx, resp); err != nil {
		logger.Error("failed to store AI response", zap.String("query", query), zap.Error(err))
	}
}

// LookupBarcode resolves a barcode from the cache or Open Food Facts.
func (s *NutritionService) LookupBarcode(ctx context.Context, code string) (*models.FoodRecord, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: barcode is required", ErrInvalidInput)
	}

	rec, err := s.foods.FindByBarcode(ctx, code)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		logger.Warn("barcode cache lookup failed", zap.String("barcode", code), zap.Error(err))
	}

	if s.off == nil {
		return nil, fmt.Errorf("%w: barcode %s", ErrNoNutrition, code)
	}
	p, err := s.off.Product(ctx, code)
	if errors.Is(err, openfoodfacts.ErrNotFound) {
		return nil, fmt.Errorf("%w: barcode %s", ErrNoNutrition, code)
	}
	if err != nil {
		logger.Warn("Open Food Facts product lookup failed", zap.String("barcode", code), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	n := p.Nutrients()
	if n.Calories <= 0 {
		return nil, fmt.Errorf("%w: barcode %s has no energy data", ErrNoNutrition, code)
	}
	name := strings.TrimSpace(p.ProductName)
	if name == "" {
		name = code
	}
	rec = &models.FoodRecord{
		Name:     name,
		Brand:    p.Brand(),
		Barcode:  code,
		Source:   models.SourceOpenFoodFacts,
		Verified: true,
	}
	rec.SetPer100g(n)
	s.save(ctx, rec)
	return rec, nil
}

// EstimateEntry fills in the nutrients of an entry that was logged without
// them, scaled to its quantity. Entries that already carry nutrients are
// returned unchanged.
func (s *NutritionService) EstimateEntry(ctx context.Context, e journal.Entry) (journal.Entry, error) {
	if !e.Nutrients.IsZero() {
		return e, nil
	}
	rec, err := s.Lookup(ctx, e.FoodName, e.Brand)
	if err != nil {
		return e, err
	}
	e.Nutrients = rec.Per100g().ForGrams(e.Quantity).Round2()
	return e, nil
}
