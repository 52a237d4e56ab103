package routes

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/FloFRCD/nutrition-app-sub001/catalog"
	"github.com/FloFRCD/nutrition-app-sub001/controllers"
	"github.com/FloFRCD/nutrition-app-sub001/db/dbtest"
	"github.com/FloFRCD/nutrition-app-sub001/jobs"
	"github.com/FloFRCD/nutrition-app-sub001/journal"
	"github.com/FloFRCD/nutrition-app-sub001/kvstore"
	auth "github.com/FloFRCD/nutrition-app-sub001/middleware"
	"github.com/FloFRCD/nutrition-app-sub001/nutrition"
	"github.com/FloFRCD/nutrition-app-sub001/repository"
	"github.com/FloFRCD/nutrition-app-sub001/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type cannedModel struct{ reply string }

func (m cannedModel) GenerateContent(context.Context, []llms.MessageContent, ...llms.CallOption) (*llms.ContentResponse, error) {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m cannedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

type denyAll struct{}

func (denyAll) Status(context.Context, string) (services.SubscriptionStatus, error) {
	return services.SubscriptionStatus{Entitlement: "premium"}, nil
}

// fakeUpdates records SSE subscriptions so tests can push updates.
type fakeUpdates struct {
	mu   sync.Mutex
	subs map[chan jobs.NutritionUpdate]string
}

func (f *fakeUpdates) Subscribe(userID string, ch chan jobs.NutritionUpdate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[ch] = userID
}

func (f *fakeUpdates) Unsubscribe(ch chan jobs.NutritionUpdate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, ch)
}

func (f *fakeUpdates) send(u jobs.NutritionUpdate) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for ch, userID := range f.subs {
		if userID == u.UserID {
			ch <- u
			n++
		}
	}
	return n
}

const recipeJSON = `{"recipes":[{"name":"Tofu stir fry","servings":1,
"ingredients":[{"name":"tofu","quantity":200,"unit":"g"},{"name":"soy sauce","quantity":2,"unit":"tbsp"}],
"per_serving":{"calories":450,"protein":30,"carbs":20,"fat":25,"fiber":4}}]}`

type testAPI struct {
	t       *testing.T
	handler http.Handler
	updates *fakeUpdates
}

func newTestAPI(t *testing.T, entitlements auth.EntitlementChecker) *testAPI {
	return newTestAPIWithStore(t, entitlements, kvstore.NewMemoryStore())
}

func newTestAPIWithStore(t *testing.T, entitlements auth.EntitlementChecker, store kvstore.Store) *testAPI {
	conn := dbtest.New(t)
	j := journal.NewService(store)
	foods := repository.NewFoodRecordRepository(conn)

	nutritionSvc := services.NewNutritionService(foods, repository.NewAIResponseRepository(conn), nil, nil)
	profiles := services.NewProfileService(repository.NewProfileRepository(conn))
	authSvc := services.NewAuthService(repository.NewAccountRepository(conn), "test-secret")
	recipes := services.NewRecipeService(cannedModel{reply: recipeJSON}, profiles, j, store)
	photo := services.NewPhotoService(nil, nil, nutritionSvc, j)
	subs := services.NewSubscriptionService(nil, "premium")

	opts := Options{
		AllowedOrigins: []string{"*"},
		Authenticator:  authSvc,
		Entitlements:   subs,
		IngestAPIKey:   "ingest-key",
		Updates:        &fakeUpdates{subs: map[chan jobs.NutritionUpdate]string{}},
	}
	if entitlements != nil {
		opts.Entitlements = entitlements
	}

	h := Handlers{
		Auth:         controllers.NewAuthController(authSvc),
		Profile:      controllers.NewProfileController(profiles),
		Journal:      controllers.NewJournalController(j, services.NewBarcodeService(nutritionSvc, j), photo),
		Foods:        controllers.NewFoodController(nutritionSvc, photo),
		Summary:      controllers.NewSummaryController(services.NewDailyService(j, profiles, store)),
		Recipes:      controllers.NewRecipeController(recipes),
		Shopping:     controllers.NewShoppingController(services.NewShoppingService(recipes, store)),
		Subscription: controllers.NewSubscriptionController(subs),
		Ingest:       controllers.NewIngestController(catalog.NewLoader(foods)),
	}
	return &testAPI{t: t, handler: SetupRouter(h, opts), updates: opts.Updates.(*fakeUpdates)}
}

func (a *testAPI) do(method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (a *testAPI) register(email string) string {
	token, _ := a.registerAccount(email)
	return token
}

func (a *testAPI) registerAccount(email string) (token, userID string) {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/auth/register", "", map[string]string{"email": email, "password": "Sup3rSecret"})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}](a.t, rec)
	return resp.Token, resp.User.ID
}

func (a *testAPI) saveProfile(token string) {
	a.t.Helper()
	rec := a.do(http.MethodPut, "/profile", token, services.ProfileInput{
		Name: "Sam", Age: 30, Sex: "male", HeightCM: 180, WeightKG: 80, ActivityLevel: "moderate", Goal: "lose",
	})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHealthAndAuth(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = api.do(http.MethodGet, "/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	api.register("sam@example.com")
	rec = api.do(http.MethodPost, "/auth/register", "", map[string]string{"email": "sam@example.com", "password": "Sup3rSecret"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "sam@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid email or password"}`, rec.Body.String())

	rec = api.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "sam@example.com", "password": "Sup3rSecret"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[map[string]any](t, rec)["token"])

	rec = api.do(http.MethodPost, "/auth/login", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	token, userID := api.registerAccount("alex@example.com")
	rec = api.do(http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	me := decode[struct {
		User struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}](t, rec)
	assert.Equal(t, userID, me.User.ID)
	assert.Equal(t, "alex@example.com", me.User.Email)

	rec = api.do(http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfileAndSummaryFlow(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.register("sam@example.com")

	rec := api.do(http.MethodGet, "/profile", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodPut, "/profile", token, services.ProfileInput{Age: 5, Sex: "male", HeightCM: 180, WeightKG: 80, ActivityLevel: "moderate", Goal: "lose"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	api.saveProfile(token)
	rec = api.do(http.MethodGet, "/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decode[map[string]any](t, rec)
	assert.Equal(t, "Sam", profile["name"])
	assert.Equal(t, 24.7, profile["bmi"])
	assert.Equal(t, "Normal weight", profile["bmi_category"])

	rec = api.do(http.MethodGet, "/profile/needs", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	needs := decode[nutrition.Needs](t, rec)
	assert.InDelta(t, 2345.15, needs.Calories, 1e-6)

	entry := map[string]any{
		"food_name": "Oatmeal", "quantity_g": 80, "date": "2024-05-10", "meal": "breakfast",
		"nutrients": map[string]float64{"calories": 300, "protein": 10},
	}
	rec = api.do(http.MethodPost, "/journal", token, entry)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	added := decode[journal.Entry](t, rec)

	rec = api.do(http.MethodPost, "/journal", token, entry)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, added.ID, decode[journal.Entry](t, rec).ID)

	rec = api.do(http.MethodPost, "/journal", token, map[string]any{"food_name": "Oatmeal", "quantity_g": 80, "meal": "brunch"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = api.do(http.MethodPost, "/journal", token, map[string]any{
		"food_name": "Oatmeal", "quantity_g": 80, "date": "2024-05-10", "meal": "breakfast",
		"nutrients": map[string]float64{"calories": 300, "fat": -2},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPut, "/activity/burned", token, map[string]any{"date": "2024-05-10", "calories": 250})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(http.MethodGet, "/summary?date=2024-05-10", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sum := decode[services.DailySummary](t, rec)
	assert.Equal(t, 300.0, sum.Consumed.Calories)
	assert.Equal(t, 250.0, sum.Burned)
	assert.InDelta(t, 2345.15+250-300, sum.Remaining, 1e-6)
	assert.Equal(t, services.ModeNormal, sum.Mode)

	rec = api.do(http.MethodGet, "/journal?date=2024-05-10", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string]any](t, rec)["entries"], 1)

	rec = api.do(http.MethodDelete, "/journal/"+added.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(http.MethodDelete, "/journal/"+added.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(http.MethodGet, "/journal?date=05/10/2024", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecipesAndShopping(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.register("sam@example.com")
	api.saveProfile(token)

	rec := api.do(http.MethodPost, "/recipes/generate", token, services.RecipeRequest{Meal: "dinner"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	generated := decode[struct {
		Recipes []services.Recipe `json:"recipes"`
	}](t, rec).Recipes
	require.Len(t, generated, 1)

	rec = api.do(http.MethodPost, "/recipes/selected", token, generated[0])
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(http.MethodPost, "/recipes/"+generated[0].ID+"/log", token, services.RecipeLog{Date: "2024-05-10"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	logged := decode[journal.Entry](t, rec)
	assert.Equal(t, journal.SourceRecipe, logged.Source)
	assert.Equal(t, nutrition.Dinner, logged.Meal)

	rec = api.do(http.MethodPost, "/shopping/rebuild", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[services.ShoppingList](t, rec)
	require.Len(t, list.Items, 2)

	rec = api.do(http.MethodPost, "/shopping/items", token, map[string]string{"text": "2 eggs"})
	require.Equal(t, http.StatusCreated, rec.Code)
	item := decode[services.ShoppingItem](t, rec)

	rec = api.do(http.MethodPatch, "/shopping/items/"+item.ID, token, map[string]bool{"checked": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[services.ShoppingItem](t, rec).Checked)

	rec = api.do(http.MethodPatch, "/shopping/items/"+item.ID, token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodDelete, "/shopping/items/"+item.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(http.MethodDelete, "/shopping/items/"+item.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodDelete, "/recipes/selected/"+generated[0].ID, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(http.MethodGet, "/recipes/selected", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"recipes":[]}`, rec.Body.String())
}

func TestRecipeGenerationRequiresEntitlement(t *testing.T) {
	api := newTestAPI(t, denyAll{})
	token := api.register("sam@example.com")
	api.saveProfile(token)

	rec := api.do(http.MethodPost, "/recipes/generate", token, services.RecipeRequest{Meal: "dinner"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodGet, "/recipes/selected", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFoodsAndIngest(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.register("sam@example.com")

	foods := map[string]any{"foods": []catalog.Food{{Name: "Skyr", Brand: "Arla", Barcode: "5701234567890", Calories: 63, Protein: 11}}}
	rec := api.do(http.MethodPost, "/ingest/foods", "", foods)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPost, "/ingest/foods", "", foods, "X-API-Key", "ingest-key")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"ingested":1}`, rec.Body.String())

	rec = api.do(http.MethodGet, "/foods/search?q=skyr&brand=arla", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	skyr := decode[map[string]any](t, rec)
	assert.Equal(t, 63.0, skyr["calories"])

	rec = api.do(http.MethodGet, fmt.Sprintf("/foods/%v", skyr["id"]), token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Skyr", decode[map[string]any](t, rec)["name"])

	rec = api.do(http.MethodGet, "/foods/99999", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = api.do(http.MethodGet, "/foods/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodGet, "/ingest/ai-responses?q=skyr", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = api.do(http.MethodGet, "/ingest/ai-responses?q=skyr", "", nil, "X-API-Key", "ingest-key")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"responses":[]}`, rec.Body.String())
	rec = api.do(http.MethodGet, "/ingest/ai-responses", "", nil, "X-API-Key", "ingest-key")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodGet, "/foods/search", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodGet, "/foods/search?q=dragonfruit", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodGet, "/foods/barcode/5701234567890", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodPost, "/journal/barcode", token, services.BarcodeLog{Barcode: "5701234567890", Quantity: 150, Meal: "snack", Date: "2024-05-10"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 94.5, decode[journal.Entry](t, rec).Nutrients.Calories)

	rec = api.do(http.MethodPost, "/foods/recognize", token, map[string]string{"image": "data:image/png;base64,iVBORw0KGgo="})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = api.do(http.MethodGet, "/subscription", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["active"])
}

func TestJournalSSE(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.register("sam@example.com")

	srv := httptest.NewServer(api.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sse/journal", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() (string, string) {
		var event, data string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			switch {
			case line == "":
				return event, data
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			}
		}
	}

	event, _ := readEvent()
	assert.Equal(t, "connected", event)

	var userID string
	require.Eventually(t, func() bool {
		api.updates.mu.Lock()
		defer api.updates.mu.Unlock()
		for _, id := range api.updates.subs {
			userID = id
			return true
		}
		return false
	}, time.Second, 10*time.Millisecond)

	api.updates.send(jobs.NutritionUpdate{UserID: userID, EntryID: "e1", FoodName: "Oatmeal", Nutrients: nutrition.Nutrients{Calories: 300}})
	event, data := readEvent()
	assert.Equal(t, "nutrition_update", event)

	var update jobs.NutritionUpdate
	require.NoError(t, json.Unmarshal([]byte(data), &update))
	assert.Equal(t, "e1", update.EntryID)
	assert.Equal(t, 300.0, update.Nutrients.Calories)
}

func TestShutdownEndsStreamsAndFlushesParkedWrites(t *testing.T) {
	backing := kvstore.NewMemoryStore()
	store := kvstore.NewDebouncedWriter(backing, time.Hour)
	api := newTestAPIWithStore(t, nil, store)
	token, userID := api.registerAccount("sam@example.com")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := NewServer(ln.Addr().String(), api.handler)
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()
	baseURL := "http://" + ln.Addr().String()

	send := func(method, path string, body any) *http.Response {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req, err := http.NewRequest(method, baseURL+path, &buf)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		return resp
	}

	stream := send(http.MethodGet, "/sse/journal", nil)
	defer stream.Body.Close()
	reader := bufio.NewReader(stream.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)

	for _, food := range []string{"Apple", "Pear"} {
		resp := send(http.MethodPost, "/journal", map[string]any{
			"food_name": food, "quantity_g": 150, "date": "2024-05-10", "meal": "snack",
			"nutrients": map[string]float64{"calories": 80},
		})
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.ErrorIs(t, <-served, http.ErrServerClosed)
	_, _ = io.Copy(io.Discard, reader)

	flushCtx, cancelFlush := context.WithTimeout(context.Background(), time.Second)
	defer cancelFlush()
	require.NoError(t, store.Flush(flushCtx))

	entries, err := journal.NewService(backing).Entries(context.Background(), userID)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.FoodName)
	}
	assert.Equal(t, []string{"Apple", "Pear"}, names)
}
