package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"cashmate/models"
	"cashmate/pkg/apperr"
	"cashmate/pkg/article"
	"cashmate/pkg/auth"
	"cashmate/pkg/avatar"
	"cashmate/pkg/config"
	"cashmate/pkg/kategori"
	"cashmate/pkg/logger"
	"cashmate/pkg/pencatatan"
	"cashmate/pkg/profile"
	"cashmate/pkg/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testAPIKey = "internal-key"

type nopMailer struct{}

func (nopMailer) SendWelcome(context.Context, string, string) error { return nil }

// fakeVerifier accepts credentials registered in assertions.
type fakeVerifier struct {
	assertions map[string]auth.Assertion
}

func (f *fakeVerifier) Verify(_ context.Context, credential string) (auth.Assertion, error) {
	a, ok := f.assertions[credential]
	if !ok {
		return auth.Assertion{}, apperr.External("Google token tidak valid, silakan coba lagi.", errors.New("bad token")).
			WithCode("google_token_invalid")
	}
	return a, nil
}

// performRequest sends a request with an optional bearer token.
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func setupTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	log := logger.Noop()
	cfg := &config.Config{
		AppEnv:          "test",
		UploadBase:      t.TempDir(),
		AvatarBackend:   "local",
		InternalAPIKeys: []string{testAPIKey},
	}
	srv := &server{
		cfg: cfg,
		db:  db,
		log: log,
		auth: auth.NewService(db, auth.Options{
			Secret:     []byte("integration-secret"),
			BcryptCost: bcrypt.MinCost,
			Mailer:     nopMailer{},
			Logger:     log,
		}),
		verifier: &fakeVerifier{assertions: map[string]auth.Assertion{
			"good-credential": {Email: "g@x.com", DisplayName: "Gita", ExternalID: "sub-1", EmailVerified: true},
		}},
		records:  pencatatan.NewStore(db, log),
		kategori: kategori.NewRegistry(db, log),
		profiles: profile.NewService(db, avatar.NewLocalStore(cfg.UploadBase), log),
		articles: article.NewService(db, log),
	}
	require.NoError(t, seedDB(context.Background(), db, log))
	r := gin.New()
	srv.setupRoutes(r)
	return r, db
}

func registerAndLogin(t *testing.T, r http.Handler, email, password, name string) string {
	t.Helper()
	resp := performRequest(r, http.MethodPost, "/register",
		jsonBody(t, map[string]string{"email": email, "password": password, "fullName": name}), "", "application/json")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = performRequest(r, http.MethodPost, "/login",
		jsonBody(t, map[string]string{"email": email, "password": password}), "", "application/json")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	data := decode(t, resp)["data"].(map[string]any)
	token, _ := data["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func createKategori(t *testing.T, r http.Handler, token, nama string, tipe models.Tipe) uint {
	t.Helper()
	resp := performRequest(r, http.MethodPost, "/kategori",
		jsonBody(t, map[string]string{"nama": nama, "tipe": string(tipe)}), token, "application/json")
	require.Contains(t, []int{http.StatusOK, http.StatusCreated}, resp.Code, resp.Body.String())
	data := decode(t, resp)["data"].(map[string]any)
	return uint(data["id"].(float64))
}

func TestFullFlow(t *testing.T) {
	r, _ := setupTestServer(t)

	token := registerAndLogin(t, r, "a@x.com", "secret123", "Ana")

	resp := performRequest(r, http.MethodGet, "/pencatatan", nil, token, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Empty(t, decode(t, resp)["data"])

	katID := createKategori(t, r, token, "Gaji", models.Pemasukan)
	resp = performRequest(r, http.MethodPost, "/pencatatan",
		jsonBody(t, map[string]any{"jumlah": 1000, "tipe": "pemasukan", "kategori": katID}), token, "application/json")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = performRequest(r, http.MethodGet, "/pencatatan?with=kategori", nil, token, "")
	require.Equal(t, http.StatusOK, resp.Code)
	items := decode(t, resp)["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Gaji", items[0].(map[string]any)["kategori"].(map[string]any)["nama"])

	resp = performRequest(r, http.MethodDelete, "/logout", nil, token, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = performRequest(r, http.MethodGet, "/pencatatan", nil, token, "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "unauthenticated", decode(t, resp)["error"])
}

func TestRegisterAndLoginErrors(t *testing.T) {
	r, _ := setupTestServer(t)
	registerAndLogin(t, r, "a@x.com", "secret123", "Ana")

	resp := performRequest(r, http.MethodPost, "/register",
		jsonBody(t, map[string]string{"email": "a@x.com", "password": "secret123", "fullName": "Ana"}), "", "application/json")
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = performRequest(r, http.MethodPost, "/register",
		jsonBody(t, map[string]string{"email": "not-an-email", "password": "1", "fullName": ""}), "", "application/json")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.NotEmpty(t, decode(t, resp)["errors"])

	wrongPassword := performRequest(r, http.MethodPost, "/login",
		jsonBody(t, map[string]string{"email": "a@x.com", "password": "nope"}), "", "application/json")
	unknownEmail := performRequest(r, http.MethodPost, "/login",
		jsonBody(t, map[string]string{"email": "b@x.com", "password": "secret123"}), "", "application/json")
	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, wrongPassword.Code, unknownEmail.Code)
	assert.JSONEq(t, wrongPassword.Body.String(), unknownEmail.Body.String())

	resp = performRequest(r, http.MethodPost, "/login", bytes.NewBufferString("{"), "", "application/json")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestPencatatanOwnership(t *testing.T) {
	r, _ := setupTestServer(t)
	alice := registerAndLogin(t, r, "alice@x.com", "secret123", "Alice")
	bob := registerAndLogin(t, r, "bob@x.com", "secret123", "Bob")
	katID := createKategori(t, r, alice, "Makan", models.Pengeluaran)

	resp := performRequest(r, http.MethodPost, "/pencatatan",
		jsonBody(t, map[string]any{"jumlah": 25000, "tipe": "pengeluaran", "kategori": katID, "catatan": "bakso"}), alice, "application/json")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	id := uint(decode(t, resp)["data"].(map[string]any)["id"].(float64))
	path := fmt.Sprintf("/pencatatan/%d", id)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		resp = performRequest(r, method, path, jsonBody(t, map[string]any{"jumlah": 1}), bob, "application/json")
		assert.Equal(t, http.StatusNotFound, resp.Code, method)
	}
	missing := performRequest(r, http.MethodGet, fmt.Sprintf("/pencatatan/%d", id+100), nil, bob, "")
	foreign := performRequest(r, http.MethodGet, path, nil, bob, "")
	assert.JSONEq(t, missing.Body.String(), foreign.Body.String())

	resp = performRequest(r, http.MethodPut, path, jsonBody(t, map[string]any{"jumlah": 30000}), alice, "application/json")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.EqualValues(t, 30000, decode(t, resp)["data"].(map[string]any)["jumlah"])

	resp = performRequest(r, http.MethodPost, "/pencatatan",
		jsonBody(t, map[string]any{"jumlah": 1, "tipe": "income", "kategori": katID}), alice, "application/json")
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = performRequest(r, http.MethodGet, "/ringkasan", nil, alice, "")
	require.Equal(t, http.StatusOK, resp.Code)
	sum := decode(t, resp)["data"].(map[string]any)
	assert.EqualValues(t, 30000, sum["pengeluaran"])
	assert.EqualValues(t, -30000, sum["saldo"])

	resp = performRequest(r, http.MethodDelete, path, nil, alice, "")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestKategoriFindOrCreateStatus(t *testing.T) {
	r, _ := setupTestServer(t)
	token := registerAndLogin(t, r, "a@x.com", "secret123", "Ana")

	body := map[string]string{"nama": "Transport", "tipe": "pengeluaran"}
	first := performRequest(r, http.MethodPost, "/kategori", jsonBody(t, body), token, "application/json")
	second := performRequest(r, http.MethodPost, "/kategori", jsonBody(t, body), token, "application/json")
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t,
		decode(t, first)["data"].(map[string]any)["id"],
		decode(t, second)["data"].(map[string]any)["id"])

	resp := performRequest(r, http.MethodGet, "/kategori", nil, "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestGoogleLogin(t *testing.T) {
	r, db := setupTestServer(t)

	var ids []any
	for i := 0; i < 2; i++ {
		resp := performRequest(r, http.MethodPost, "/google-login",
			jsonBody(t, map[string]string{"credential": "good-credential"}), "", "application/json")
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		data := decode(t, resp)["data"].(map[string]any)
		ids = append(ids, data["user"].(map[string]any)["id"])

		token := data["access_token"].(string)
		resp = performRequest(r, http.MethodGet, "/profile", nil, token, "")
		assert.Equal(t, http.StatusOK, resp.Code)
	}
	assert.Equal(t, ids[0], ids[1])
	var n int64
	require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	resp := performRequest(r, http.MethodPost, "/google-login",
		jsonBody(t, map[string]string{"credential": "forged"}), "", "application/json")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "google_token_invalid", decode(t, resp)["error"])
}

func TestProfileUpdateAndChangePassword(t *testing.T) {
	r, _ := setupTestServer(t)
	token := registerAndLogin(t, r, "a@x.com", "secret123", "Ana")

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 40, 20))))
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	require.NoError(t, mw.WriteField("fullName", "Ana Baru"))
	fw, err := mw.CreateFormFile("avatar", "me.png")
	require.NoError(t, err)
	_, err = fw.Write(img.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp := performRequest(r, http.MethodPost, "/profile/update", buf, token, mw.FormDataContentType())
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	data := decode(t, resp)["data"].(map[string]any)
	assert.Equal(t, "Ana Baru", data["fullName"])
	avatarURL, _ := data["avatar"].(string)
	require.NotEmpty(t, avatarURL)

	resp = performRequest(r, http.MethodGet, avatarURL, nil, "", "")
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = performRequest(r, http.MethodPost, "/profile/change-password", jsonBody(t, map[string]string{
		"oldPassword": "wrong", "newPassword": "newsecret", "confirmPassword": "newsecret",
	}), token, "application/json")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "password_mismatch", decode(t, resp)["error"])

	resp = performRequest(r, http.MethodPost, "/profile/change-password", jsonBody(t, map[string]string{
		"oldPassword": "secret123", "newPassword": "newsecret", "confirmPassword": "newsecret",
	}), token, "application/json")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = performRequest(r, http.MethodPost, "/login",
		jsonBody(t, map[string]string{"email": "a@x.com", "password": "newsecret"}), "", "application/json")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestArticlesRequireAPIKey(t *testing.T) {
	r, _ := setupTestServer(t)

	withKey := func(method, path, key string, body io.Reader) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", "application/json")
		if key != "" {
			req.Header.Set("Authorization", key)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, withKey(http.MethodGet, "/articles", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, withKey(http.MethodGet, "/articles", "wrong", nil).Code)

	resp := withKey(http.MethodGet, "/articles", testAPIKey, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	list := decode(t, resp)["data"].([]any)
	require.NotEmpty(t, list)
	first := list[0].(map[string]any)
	assert.NotContains(t, first, "content")

	resp = withKey(http.MethodGet, fmt.Sprintf("/articles/%v", first["id"]), testAPIKey, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.NotEmpty(t, decode(t, resp)["data"].(map[string]any)["content"])

	resp = withKey(http.MethodPost, "/articles", testAPIKey, jsonBody(t, map[string]string{"title": "Tanpa isi"}))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = withKey(http.MethodPost, "/articles", testAPIKey, jsonBody(t, map[string]string{"title": "Judul", "content": "Isi"}))
	assert.Equal(t, http.StatusCreated, resp.Code)

	assert.Equal(t, http.StatusNotFound, withKey(http.MethodGet, "/articles/9999", testAPIKey, nil).Code)
}

func TestBearerToken(t *testing.T) {
	tok, ok := bearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	tok, ok = bearerToken("bearer   abc ")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	for _, h := range []string{"", "abc", "Basic abc", "Bearer ", "Bearer"} {
		_, ok := bearerToken(h)
		assert.False(t, ok, h)
	}
}

func TestHealth(t *testing.T) {
	r, _ := setupTestServer(t)
	resp := performRequest(r, http.MethodGet, "/health", nil, "", "")
	assert.Equal(t, http.StatusOK, resp.Code)
}
