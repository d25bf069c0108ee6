package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/omara/internal/auth"
	"github.com/erazemk/omara/internal/db"
	"github.com/erazemk/omara/internal/kvstore"
	"github.com/erazemk/omara/internal/model"
	"github.com/erazemk/omara/internal/store"
	"github.com/erazemk/omara/internal/wardrobe"
)

const testJWTSecret = "test-secret"

type testEnv struct {
	server *httptest.Server
	db     *sql.DB
	repo   *wardrobe.Repository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := db.NewTestDB(t)
	repo := wardrobe.New(kvstore.NewSQLite(database))
	if err := repo.Load(context.Background()); err != nil {
		t.Fatalf("loading wardrobe: %v", err)
	}
	server := httptest.NewServer(NewRouter(database, repo, testJWTSecret))
	t.Cleanup(server.Close)
	return &testEnv{server: server, db: database, repo: repo}
}

func setupTestServer(t *testing.T) (*testEnv, string) {
	t.Helper()
	env := newTestEnv(t)

	// Create admin user.
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if _, err := store.CreateUser(ctx, env.db, "admin", string(hash), model.RoleAdmin); err != nil {
		t.Fatalf("creating admin: %v", err)
	}

	// Get token.
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "password"})
	resp, err := http.Post(env.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp loginResponse
	json.NewDecoder(resp.Body).Decode(&loginResp)
	if loginResp.Token == "" {
		t.Fatal("empty token from login")
	}

	return env, loginResp.Token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do sends an authenticated request, checks the status and decodes the body into out.
func do(t *testing.T, method, url, token string, body any, wantStatus int, out any) {
	t.Helper()
	req, err := authRequest(method, url, token, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: expected %d, got %d", method, url, wantStatus, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
	}
}

func newItem(name string, category model.Category, style model.Style, count int) map[string]any {
	return map[string]any{
		"category": category,
		"properties": map[string]any{
			"name":       name,
			"dressStyle": style,
			"count":      count,
		},
	}
}

func TestLoginEndpoint(t *testing.T) {
	env, _ := setupTestServer(t)

	// Test invalid credentials.
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, _ := http.Post(env.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Test missing fields.
	body, _ = json.Marshal(map[string]string{"username": "admin"})
	resp, _ = http.Post(env.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for missing password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLogoutRevokesToken(t *testing.T) {
	env, token := setupTestServer(t)

	do(t, "POST", env.server.URL+"/api/auth/logout", token, nil, http.StatusOK, nil)
	do(t, "GET", env.server.URL+"/api/items", token, nil, http.StatusUnauthorized, nil)
}

func TestItemsAPIFlow(t *testing.T) {
	env, token := setupTestServer(t)
	base := env.server.URL + "/api/items"

	// Create item.
	var created model.ClothingItem
	do(t, "POST", base, token, newItem("White shirt", model.CategoryTop, model.StyleFormal, 3), http.StatusCreated, &created)
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if created.WearCount != 3 {
		t.Errorf("expected wear count to start at allowance 3, got %d", created.WearCount)
	}

	// Duplicate id.
	dup := newItem("Other", model.CategoryTop, model.StyleFormal, 1)
	dup["id"] = created.ID
	do(t, "POST", base, token, dup, http.StatusConflict, nil)

	// Missing name.
	do(t, "POST", base, token, newItem("", model.CategoryTop, model.StyleFormal, 1), http.StatusBadRequest, nil)

	// Get.
	var got model.ClothingItem
	do(t, "GET", base+"/"+created.ID, token, nil, http.StatusOK, &got)
	if got.Properties.Name != "White shirt" {
		t.Errorf("expected name White shirt, got %q", got.Properties.Name)
	}

	// Update keeps wear state when omitted.
	update := newItem("Blue shirt", model.CategoryTop, model.StyleCasual, 3)
	var updated model.ClothingItem
	do(t, "PUT", base+"/"+created.ID, token, update, http.StatusOK, &updated)
	if updated.Properties.Name != "Blue shirt" || updated.WearCount != 3 {
		t.Errorf("unexpected update result: %+v", updated)
	}

	// Filters.
	do(t, "POST", base, token, newItem("Grey trousers", model.CategoryBottom, model.StyleFormal, 2), http.StatusCreated, nil)
	var items []model.ClothingItem
	do(t, "GET", base+"?style=casual", token, nil, http.StatusOK, &items)
	if len(items) != 1 || items[0].ID != created.ID {
		t.Errorf("expected only the casual item, got %+v", items)
	}
	do(t, "GET", base+"?category=bottom", token, nil, http.StatusOK, &items)
	if len(items) != 1 || items[0].Category != model.CategoryBottom {
		t.Errorf("expected only the bottom, got %+v", items)
	}

	// Delete.
	do(t, "DELETE", base+"/"+created.ID, token, nil, http.StatusOK, nil)
	do(t, "GET", base+"/"+created.ID, token, nil, http.StatusNotFound, nil)
	do(t, "DELETE", base+"/"+created.ID, token, nil, http.StatusNotFound, nil)
	do(t, "PUT", base+"/missing", token, update, http.StatusNotFound, nil)
}

func TestOutfitsAPI(t *testing.T) {
	env, token := setupTestServer(t)
	base := env.server.URL

	var shirt, trousers model.ClothingItem
	do(t, "POST", base+"/api/items", token, newItem("Shirt", model.CategoryTop, model.StyleFormal, 2), http.StatusCreated, &shirt)
	do(t, "POST", base+"/api/items", token, newItem("Trousers", model.CategoryBottom, model.StyleFormal, 2), http.StatusCreated, &trousers)

	var week model.Week
	do(t, "GET", base+"/api/outfits?style=formal", token, nil, http.StatusOK, &week)
	if len(week) != len(model.Days) {
		t.Fatalf("expected %d days, got %d", len(model.Days), len(week))
	}
	monday := week[model.Monday]
	if monday[model.CategoryTop] == nil || monday[model.CategoryTop].ID != shirt.ID {
		t.Errorf("expected shirt on Monday, got %+v", monday[model.CategoryTop])
	}
	if monday[model.CategorySocks] != nil {
		t.Errorf("expected empty socks slot, got %+v", monday[model.CategorySocks])
	}

	var day model.Outfit
	do(t, "GET", base+"/api/outfits?style=formal&day=Friday", token, nil, http.StatusOK, &day)
	if day[model.CategoryBottom] == nil || day[model.CategoryBottom].ID != trousers.ID {
		t.Errorf("expected trousers on Friday, got %+v", day[model.CategoryBottom])
	}

	do(t, "GET", base+"/api/outfits?style=sporty", token, nil, http.StatusBadRequest, nil)
	do(t, "GET", base+"/api/outfits?day=Someday", token, nil, http.StatusBadRequest, nil)

	// Confirm uses one wear per item.
	var confirmed confirmResponse
	do(t, "POST", base+"/api/outfits/confirm", token, map[string]string{"style": "formal"}, http.StatusOK, &confirmed)
	if confirmed.Outfit == nil || confirmed.Outfit.Style != model.StyleFormal {
		t.Fatalf("expected a saved formal outfit, got %+v", confirmed.Outfit)
	}
	for _, c := range confirmed.Items {
		if c.WearCount != 1 {
			t.Errorf("expected %s wear count 1, got %d", c.Properties.Name, c.WearCount)
		}
	}

	var history []model.WornEntry
	do(t, "GET", base+"/api/history", token, nil, http.StatusOK, &history)
	if len(history) != 2 {
		t.Errorf("expected 2 worn entries, got %d", len(history))
	}
}

func TestSavedOutfitsAPI(t *testing.T) {
	env, token := setupTestServer(t)
	base := env.server.URL

	var shirt model.ClothingItem
	do(t, "POST", base+"/api/items", token, newItem("Shirt", model.CategoryTop, model.StyleFormal, 3), http.StatusCreated, &shirt)

	var saved []model.SavedOutfit
	do(t, "GET", base+"/api/outfits/saved", token, nil, http.StatusOK, &saved)
	if len(saved) != 0 {
		t.Fatalf("expected no saved outfits, got %d", len(saved))
	}

	var confirmed confirmResponse
	do(t, "POST", base+"/api/outfits/confirm", token, map[string]string{"style": "formal"}, http.StatusOK, &confirmed)
	id := confirmed.Outfit.ID

	do(t, "GET", base+"/api/outfits/saved", token, nil, http.StatusOK, &saved)
	if len(saved) != 1 || saved[0].ID != id {
		t.Fatalf("expected the confirmed week, got %+v", saved)
	}

	var got model.SavedOutfit
	do(t, "GET", base+"/api/outfits/saved/"+id, token, nil, http.StatusOK, &got)
	if top := got.Week[model.Wednesday][model.CategoryTop]; top == nil || top.ID != shirt.ID {
		t.Errorf("expected shirt on Wednesday, got %+v", top)
	}

	do(t, "DELETE", base+"/api/outfits/saved/"+id, token, nil, http.StatusOK, nil)
	do(t, "GET", base+"/api/outfits/saved/"+id, token, nil, http.StatusNotFound, nil)
	do(t, "DELETE", base+"/api/outfits/saved/"+id, token, nil, http.StatusNotFound, nil)

	// An empty week is confirmed without saving anything.
	do(t, "POST", base+"/api/outfits/confirm", token, map[string]string{"style": "casual"}, http.StatusOK, &confirmed)
	if confirmed.Outfit != nil {
		t.Errorf("expected no outfit for an empty week, got %+v", confirmed.Outfit)
	}
}

func TestDefaultStyleSetting(t *testing.T) {
	env, token := setupTestServer(t)
	base := env.server.URL

	var setting styleSetting
	do(t, "GET", base+"/api/settings/style", token, nil, http.StatusOK, &setting)
	if setting.Style != model.StyleFormal {
		t.Errorf("expected formal default, got %q", setting.Style)
	}

	do(t, "PUT", base+"/api/settings/style", token, styleSetting{Style: "sporty"}, http.StatusBadRequest, nil)
	do(t, "PUT", base+"/api/settings/style", token, styleSetting{Style: model.StyleCasual}, http.StatusOK, nil)

	var shorts model.ClothingItem
	do(t, "POST", base+"/api/items", token, newItem("Shorts", model.CategoryShorts, model.StyleCasual, 1), http.StatusCreated, &shorts)

	var week model.Week
	do(t, "GET", base+"/api/outfits", token, nil, http.StatusOK, &week)
	if s := week[model.Monday][model.CategoryShorts]; s == nil || s.ID != shorts.ID {
		t.Errorf("expected casual week with shorts, got %+v", week[model.Monday])
	}
}

func TestLaundryAPIFlow(t *testing.T) {
	env, token := setupTestServer(t)
	base := env.server.URL

	var shirt model.ClothingItem
	do(t, "POST", base+"/api/items", token, newItem("Shirt", model.CategoryTop, model.StyleFormal, 1), http.StatusCreated, &shirt)

	// One wear exhausts the allowance.
	do(t, "POST", base+"/api/outfits/confirm", token, map[string]string{"style": "formal"}, http.StatusOK, nil)

	var week model.Week
	do(t, "GET", base+"/api/outfits?style=formal", token, nil, http.StatusOK, &week)
	if week[model.Monday][model.CategoryTop] != nil {
		t.Error("expected exhausted shirt to be left out")
	}

	do(t, "POST", base+"/api/laundry", token, idsRequest{IDs: []string{shirt.ID}}, http.StatusOK, nil)

	var inLaundry []model.ClothingItem
	do(t, "GET", base+"/api/laundry", token, nil, http.StatusOK, &inLaundry)
	if len(inLaundry) != 1 || inLaundry[0].ID != shirt.ID {
		t.Fatalf("expected shirt in laundry, got %+v", inLaundry)
	}

	var items []model.ClothingItem
	do(t, "POST", base+"/api/laundry/complete", token, idsRequest{IDs: []string{shirt.ID, "unknown"}}, http.StatusOK, &items)
	if len(items) != 1 || items[0].LaundryStatus || items[0].WearCount != 1 {
		t.Errorf("expected clean shirt with restored allowance, got %+v", items)
	}

	do(t, "POST", base+"/api/laundry/complete", token, idsRequest{}, http.StatusBadRequest, nil)
}

func TestHistoryAPI(t *testing.T) {
	env, token := setupTestServer(t)
	base := env.server.URL

	var shirt, socks model.ClothingItem
	do(t, "POST", base+"/api/items", token, newItem("Shirt", model.CategoryTop, model.StyleFormal, 2), http.StatusCreated, &shirt)
	do(t, "POST", base+"/api/items", token, newItem("Socks", model.CategorySocks, model.StyleFormal, 2), http.StatusCreated, &socks)

	do(t, "POST", base+"/api/history", token, map[string]string{"itemId": shirt.ID}, http.StatusCreated, nil)
	do(t, "POST", base+"/api/history", token, map[string]string{"itemId": socks.ID}, http.StatusCreated, nil)
	do(t, "POST", base+"/api/history", token, map[string]string{"itemId": "missing"}, http.StatusNotFound, nil)
	do(t, "POST", base+"/api/history", token, map[string]string{}, http.StatusBadRequest, nil)

	var history []model.WornEntry
	do(t, "GET", base+"/api/history?item="+shirt.ID, token, nil, http.StatusOK, &history)
	if len(history) != 1 || history[0].ItemID != shirt.ID {
		t.Errorf("expected one shirt entry, got %+v", history)
	}
}

func TestWardrobeReload(t *testing.T) {
	env, token := setupTestServer(t)
	ctx := context.Background()

	// Another writer updates the store directly.
	other := wardrobe.New(kvstore.NewSQLite(env.db))
	if _, err := other.Add(ctx, model.ClothingItem{
		Category:   model.CategoryTop,
		Properties: model.Properties{Name: "Polo", DressStyle: model.StyleCasual, Count: 1},
	}); err != nil {
		t.Fatalf("adding item: %v", err)
	}

	var items []model.ClothingItem
	do(t, "GET", env.server.URL+"/api/items", token, nil, http.StatusOK, &items)
	if len(items) != 0 {
		t.Fatalf("expected stale empty wardrobe, got %d items", len(items))
	}

	do(t, "POST", env.server.URL+"/api/wardrobe/reload", token, nil, http.StatusOK, &items)
	if len(items) != 1 {
		t.Errorf("expected 1 item after reload, got %d", len(items))
	}
}

func TestPhotoUploadAndItemDelete(t *testing.T) {
	env, token := setupTestServer(t)

	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := range 40 {
		for y := range 20 {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("image", "shirt.png")
	if err := png.Encode(part, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	mw.Close()

	req, _ := http.NewRequest("POST", env.server.URL+"/api/photos", &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	var photo photoResponse
	json.NewDecoder(resp.Body).Decode(&photo)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if photo.URI != store.PhotoURI(photo.ID) || photo.Width != 40 {
		t.Errorf("unexpected photo response: %+v", photo)
	}

	req, _ = authRequest("GET", env.server.URL+photo.URI+"?size=thumb", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/jpeg" {
		t.Errorf("expected jpeg thumbnail, got %d %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	resp.Body.Close()

	item := newItem("Red shirt", model.CategoryTop, model.StyleFormal, 1)
	item["image"] = photo.URI
	var created model.ClothingItem
	do(t, "POST", env.server.URL+"/api/items", token, item, http.StatusCreated, &created)
	do(t, "DELETE", env.server.URL+"/api/items/"+created.ID, token, nil, http.StatusOK, nil)

	do(t, "GET", env.server.URL+photo.URI, token, nil, http.StatusNotFound, nil)
}

func TestUnauthenticatedAccess(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := http.Get(env.server.URL + "/api/items")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRoleBasedAccess(t *testing.T) {
	env := newTestEnv(t)

	// Create a regular user.
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	user, err := store.CreateUser(ctx, env.db, "user1", string(hash), model.RoleUser)
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}

	userToken, _ := auth.GenerateToken(testJWTSecret, user.ID, "user1", model.RoleUser)

	// Regular users manage their wardrobe.
	do(t, "POST", env.server.URL+"/api/items", userToken, newItem("Tee", model.CategoryTop, model.StyleCasual, 1), http.StatusCreated, nil)

	// Regular user should not access /api/users.
	do(t, "GET", env.server.URL+"/api/users", userToken, nil, http.StatusForbidden, nil)
}
