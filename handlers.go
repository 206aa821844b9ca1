package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"cashmate/models"
	"cashmate/pkg/apperr"
	"cashmate/pkg/article"
	"cashmate/pkg/auth"
	"cashmate/pkg/avatar"
	"cashmate/pkg/config"
	"cashmate/pkg/google"
	"cashmate/pkg/kategori"
	"cashmate/pkg/mailer"
	"cashmate/pkg/pencatatan"
	"cashmate/pkg/profile"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// server holds the services behind the HTTP routes.
type server struct {
	cfg      *config.Config
	db       *gorm.DB
	log      *slog.Logger
	auth     *auth.Service
	verifier identityVerifier
	records  *pencatatan.Store
	kategori *kategori.Registry
	profiles *profile.Service
	articles *article.Service
}

func newServer(ctx context.Context, cfg *config.Config, db *gorm.DB, log *slog.Logger) (*server, error) {
	var avatars avatar.Store
	switch cfg.AvatarBackend {
	case "minio":
		ms, err := avatar.NewMinIOStore(ctx, cfg.MinIO)
		if err != nil {
			return nil, err
		}
		avatars = ms
	case "", "local":
		if err := ensureUploadDir(cfg.UploadBase); err != nil {
			return nil, err
		}
		avatars = avatar.NewLocalStore(cfg.UploadBase)
	default:
		return nil, fmt.Errorf("unknown AVATAR_BACKEND %q", cfg.AvatarBackend)
	}
	if !cfg.Google.Configured() {
		log.Warn("google sign-in is not configured")
	}

	authSvc := auth.NewService(db, auth.Options{
		Secret:   []byte(cfg.JWTSecret),
		TokenTTL: cfg.TokenTTL,
		Mailer:   mailer.New(cfg.SMTP, log),
		Logger:   log,
	})
	return &server{
		cfg:      cfg,
		db:       db,
		log:      log,
		auth:     authSvc,
		verifier: google.NewVerifier(cfg.Google.ClientID),
		records:  pencatatan.NewStore(db, log),
		kategori: kategori.NewRegistry(db, log),
		profiles: profile.NewService(db, avatars, log),
		articles: article.NewService(db, log),
	}, nil
}

func (s *server) setupRoutes(r *gin.Engine) {
	r.GET("/health", s.healthHandler)
	r.POST("/register", s.registerHandler)
	r.POST("/login", s.loginHandler)
	r.POST("/google-login", s.googleLoginHandler)
	if s.cfg.AvatarBackend == "" || s.cfg.AvatarBackend == "local" {
		r.Static("/uploads", s.cfg.UploadBase)
	}

	authGroup := r.Group("")
	authGroup.Use(s.requireAuth())
	authGroup.DELETE("/logout", s.logoutHandler)
	authGroup.GET("/pencatatan", s.listPencatatanHandler)
	authGroup.POST("/pencatatan", s.createPencatatanHandler)
	authGroup.GET("/pencatatan/:id", s.getPencatatanHandler)
	authGroup.PUT("/pencatatan/:id", s.updatePencatatanHandler)
	authGroup.DELETE("/pencatatan/:id", s.deletePencatatanHandler)
	authGroup.GET("/ringkasan", s.summaryHandler)
	authGroup.GET("/kategori", s.listKategoriHandler)
	authGroup.POST("/kategori", s.createKategoriHandler)
	authGroup.GET("/profile", s.getProfileHandler)
	authGroup.POST("/profile/update", s.updateProfileHandler)
	authGroup.POST("/profile/change-password", s.changePasswordHandler)

	articles := r.Group("/articles")
	articles.Use(requireAPIKey(s.cfg.APIKeys()))
	articles.GET("", s.listArticlesHandler)
	articles.GET("/:id", s.getArticleHandler)
	articles.POST("", s.createArticleHandler)
}

// respondError writes err in the common error shape. Causes are only
// exposed outside production.
func respondError(c *gin.Context, production bool, err error) {
	ae := apperr.As(err)
	if ae == nil {
		ae = apperr.Internal(err)
	}
	body := gin.H{"error": ae.MachineCode(), "message": ae.Message}
	if len(ae.Fields) > 0 {
		body["errors"] = ae.Fields
	}
	if !production && ae.Err != nil {
		body["detail"] = ae.Err.Error()
	}
	c.JSON(apperr.Status(ae), body)
}

func (s *server) fail(c *gin.Context, err error) {
	if apperr.KindOf(err) == apperr.KindInternal {
		s.log.Error("request failed", "path", c.FullPath(), "error", err)
	}
	respondError(c, s.cfg.IsProduction(), err)
}

// bindJSON decodes the body into v, answering 400 on malformed input.
func (s *server) bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		s.fail(c, &apperr.Error{Kind: apperr.KindValidation, Message: "Format data tidak valid", Err: err})
		return false
	}
	return true
}

func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (s *server) healthHandler(c *gin.Context) {
	status := "ok"
	code := http.StatusOK
	if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status})
}

func (s *server) registerHandler(c *gin.Context) {
	var in auth.RegisterInput
	if !s.bindJSON(c, &in) {
		return
	}
	user, err := s.auth.Register(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Registrasi berhasil", "data": user.Summary()})
}

func loginResponse(user *models.User, tok auth.IssuedToken) gin.H {
	return gin.H{
		"access_token": tok.Value,
		"token_type":   tok.Type,
		"expires_at":   tok.ExpiresAt,
		"user":         user.Summary(),
	}
}

func (s *server) loginHandler(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !s.bindJSON(c, &req) {
		return
	}
	user, tok, err := s.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login berhasil", "data": loginResponse(user, tok)})
}

func (s *server) googleLoginHandler(c *gin.Context) {
	var req struct {
		Credential string `json:"credential"`
	}
	if !s.bindJSON(c, &req) {
		return
	}
	assertion, err := s.verifier.Verify(c.Request.Context(), req.Credential)
	if err != nil {
		s.fail(c, err)
		return
	}
	user, tok, err := s.auth.ReconcileFederatedLogin(c.Request.Context(), assertion)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login dengan Google berhasil", "data": loginResponse(user, tok)})
}

func (s *server) logoutHandler(c *gin.Context) {
	if err := s.auth.Logout(c.Request.Context(), currentSession(c)); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logout berhasil"})
}

func (s *server) listPencatatanHandler(c *gin.Context) {
	filter := pencatatan.Filter{
		Bulan:        c.Query("bulan"),
		Minggu:       c.Query("minggu"),
		WithKategori: c.Query("with") == "kategori",
	}
	items, err := s.records.List(c.Request.Context(), currentUser(c), filter)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

// pencatatanInput decodes and converts a create or update body.
func (s *server) pencatatanInput(c *gin.Context) (pencatatan.Input, bool) {
	var raw pencatatan.RawInput
	if !s.bindJSON(c, &raw) {
		return pencatatan.Input{}, false
	}
	in, verr := pencatatan.Parse(raw)
	if verr != nil {
		s.fail(c, verr)
		return pencatatan.Input{}, false
	}
	return in, true
}

func (s *server) createPencatatanHandler(c *gin.Context) {
	in, ok := s.pencatatanInput(c)
	if !ok {
		return
	}
	rec, err := s.records.Create(c.Request.Context(), currentUser(c), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Catatan berhasil ditambahkan", "data": rec})
}

func (s *server) getPencatatanHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		s.fail(c, apperr.NotFound("Catatan tidak ditemukan atau bukan milik Anda"))
		return
	}
	rec, err := s.records.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rec})
}

func (s *server) updatePencatatanHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		s.fail(c, apperr.NotFound("Catatan tidak ditemukan atau bukan milik Anda"))
		return
	}
	in, ok := s.pencatatanInput(c)
	if !ok {
		return
	}
	rec, err := s.records.Update(c.Request.Context(), currentUser(c), id, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Catatan berhasil diperbarui", "data": rec})
}

func (s *server) deletePencatatanHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		s.fail(c, apperr.NotFound("Catatan tidak ditemukan atau bukan milik Anda"))
		return
	}
	if err := s.records.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Catatan berhasil dihapus"})
}

func (s *server) summaryHandler(c *gin.Context) {
	sum, err := s.records.Summarize(c.Request.Context(), currentUser(c), c.Query("bulan"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sum})
}

func (s *server) listKategoriHandler(c *gin.Context) {
	items, err := s.kategori.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *server) createKategoriHandler(c *gin.Context) {
	var in kategori.Input
	if !s.bindJSON(c, &in) {
		return
	}
	k, created, err := s.kategori.FindOrCreate(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	if created {
		c.JSON(http.StatusCreated, gin.H{"message": "Kategori berhasil dibuat", "data": k})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Kategori sudah ada", "data": k})
}

func (s *server) getProfileHandler(c *gin.Context) {
	user, err := s.profiles.Get(c.Request.Context(), currentUser(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user.Summary()})
}

func (s *server) updateProfileHandler(c *gin.Context) {
	in := profile.UpdateInput{FullName: c.PostForm("fullName")}
	fh, err := c.FormFile("avatar")
	switch {
	case err == nil:
		f, err := fh.Open()
		if err != nil {
			s.fail(c, apperr.Internal(fmt.Errorf("open avatar upload: %w", err)))
			return
		}
		defer f.Close()
		in.Avatar = &profile.AvatarFile{Name: fh.Filename, Size: fh.Size, Reader: f}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// name only
	default:
		s.fail(c, &apperr.Error{Kind: apperr.KindValidation, Message: "Format data tidak valid", Err: err})
		return
	}

	user, err := s.profiles.Update(c.Request.Context(), currentUser(c), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profil berhasil diperbarui", "data": user.Summary()})
}

func (s *server) changePasswordHandler(c *gin.Context) {
	var in auth.ChangePasswordInput
	if !s.bindJSON(c, &in) {
		return
	}
	if err := s.auth.ChangePassword(c.Request.Context(), currentUser(c), in); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password berhasil diganti"})
}

func (s *server) listArticlesHandler(c *gin.Context) {
	items, err := s.articles.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *server) getArticleHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		s.fail(c, apperr.NotFound("Artikel tidak ditemukan"))
		return
	}
	a, err := s.articles.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": a})
}

func (s *server) createArticleHandler(c *gin.Context) {
	var in article.CreateInput
	if !s.bindJSON(c, &in) {
		return
	}
	a, err := s.articles.Create(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Artikel berhasil dibuat", "data": a})
}
