package devapi

import (
	"errors"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/movement-pass/passctl/internal/config"
	"github.com/movement-pass/passctl/internal/domain"
	"github.com/movement-pass/passctl/internal/observability"
	"github.com/movement-pass/passctl/pkg/util"
)

const applicantIDKey = "applicantID"

// Server is the local stand-in for the remote movement pass API. It
// speaks the same wire contract so the CLI can run against it unchanged.
type Server struct {
	app      *fiber.App
	identity *IdentityService
	passes   *PassService
	photos   *PhotoBucket
	tokens   *TokenManager
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewServer wires the fiber app with all routes registered.
func NewServer(cfg config.DevAPIConfig, logger *zap.Logger) *Server {
	tokens := NewTokenManager(cfg.JWTSecret, cfg.TokenTTL())
	applicants := NewMemoryApplicantStore()

	s := &Server{
		identity: NewIdentityService(applicants, tokens, cfg.BcryptCost, logger),
		passes:   NewPassService(NewMemoryPassStore(), applicants, cfg.PageSize, logger),
		photos:   NewPhotoBucket(),
		tokens:   tokens,
		metrics:  observability.NewMetrics(),
		logger:   logger,
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "movement-pass-devapi",
		ErrorHandler: s.handleError,
	})
	s.app.Use(s.requestLogger)
	s.registerRoutes()
	return s
}

// App exposes the underlying fiber app for serving and tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) registerRoutes() {
	identity := s.app.Group("/identity")
	identity.Post("/register", s.register)
	identity.Post("/login", s.login)
	// Granted without auth: registration uploads the photo before the
	// account exists.
	identity.Post("/photo", s.photoUploadURL)

	s.app.Put("/photos/:filename", s.putPhoto)
	s.app.Get("/photos/:filename", s.getPhoto)

	s.app.Get("/metrics", s.metricsSnapshot)

	passes := s.app.Group("/passes", s.requireAuth)
	passes.Post("/", s.apply)
	passes.Get("/", s.list)
	passes.Get("/:id", s.get)
}

// handleError renders every failure as a status plus an errors array,
// matching what the production API sends.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"errors": []string{fiberErr.Message}})
	}

	apiErr := util.ToAPIError(err)
	if apiErr.HTTPStatus >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err), zap.String("path", c.Path()))
	}
	return c.Status(apiErr.HTTPStatus).JSON(fiber.Map{"errors": apiErr.Messages})
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	duration := time.Since(start)
	status := c.Response().StatusCode()

	s.metrics.RecordRequest(c.Method(), c.Path(), status, duration)
	s.logger.Info("request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", status),
		zap.Duration("duration", duration))
	return err
}

func (s *Server) metricsSnapshot(c *fiber.Ctx) error {
	total, mean := s.metrics.Totals()
	return c.JSON(fiber.Map{
		"total":        total,
		"meanDuration": mean.String(),
		"requests":     s.metrics.Snapshot(),
	})
}

// requireAuth verifies the bearer token and stashes the applicant id.
func (s *Server) requireAuth(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer ") {
		return util.NewUnauthorized()
	}
	claims, err := s.tokens.Parse(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return util.NewUnauthorized()
	}
	c.Locals(applicantIDKey, claims.ID)
	return c.Next()
}

func (s *Server) register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("Invalid payload")
	}
	token, err := s.identity.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"token": token})
}

func (s *Server) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("Invalid payload")
	}
	token, err := s.identity.Login(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"token": token})
}

// photoUploadURL hands out a one-shot upload target on this server,
// standing in for the production pre-signed URL flow.
func (s *Server) photoUploadURL(c *fiber.Ctx) error {
	var req struct {
		ContentType string `json:"contentType"`
		Filename    string `json:"filename"`
	}
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("Invalid payload")
	}
	if req.ContentType == "" || req.Filename == "" {
		return util.NewValidationError("Content type and filename are required")
	}

	ext := path.Ext(req.Filename)
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(req.ContentType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	filename := uuid.NewString() + ext

	return c.JSON(fiber.Map{
		"url":      c.BaseURL() + "/photos/" + filename,
		"filename": filename,
	})
}

func (s *Server) putPhoto(c *fiber.Ctx) error {
	filename := c.Params("filename")
	if filename == "" {
		return util.NewNotFound()
	}
	s.photos.Put(filename, c.Get(fiber.HeaderContentType), c.Body())
	return c.SendStatus(fiber.StatusOK)
}

func (s *Server) getPhoto(c *fiber.Ctx) error {
	contentType, body, ok := s.photos.Get(c.Params("filename"))
	if !ok {
		return util.NewNotFound()
	}
	if contentType != "" {
		c.Set(fiber.HeaderContentType, contentType)
	}
	return c.Send(body)
}

func (s *Server) apply(c *fiber.Ctx) error {
	var req applyRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("Invalid payload")
	}
	id, err := s.passes.Apply(c.UserContext(), c.Locals(applicantIDKey).(string), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (s *Server) list(c *fiber.Ctx) error {
	var key *domain.PageKey
	if id, endAt := c.Query("id"), c.Query("endAt"); id != "" && endAt != "" {
		key = &domain.PageKey{ID: id, EndAt: endAt}
	}
	page, err := s.passes.List(c.UserContext(), c.Locals(applicantIDKey).(string), key)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (s *Server) get(c *fiber.Ctx) error {
	pass, err := s.passes.Get(c.UserContext(), c.Locals(applicantIDKey).(string), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(pass)
}
