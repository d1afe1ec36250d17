package web

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/amishk599/coldmail/internal/model"
	"github.com/amishk599/coldmail/internal/pipeline"
)

//go:embed templates/index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// writeTimeout also bounds a single pipeline run.
const writeTimeout = 3 * time.Minute

// Server serves the single-form web UI and its JSON twin.
type Server struct {
	app      *fiber.App
	runner   pipeline.Runner
	validate *validator.Validate
	logger   *slog.Logger

	baseCtx context.Context
	stop    context.CancelFunc
}

// NewServer builds the fiber app. Each request runs the pipeline once; nothing is shared between requests.
func NewServer(runner pipeline.Runner, logger *slog.Logger) *Server {
	baseCtx, stop := context.WithCancel(context.Background())
	s := &Server{
		runner:   runner,
		validate: validator.New(),
		logger:   logger,
		baseCtx:  baseCtx,
		stop:     stop,
	}

	app := fiber.New(fiber.Config{
		AppName:               "coldmail",
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          writeTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(recover.New())
	app.Use(requestLogger(logger))

	app.Get("/", s.handleIndex)
	app.Post("/", s.handleForm)
	app.Post("/api/generate", s.handleGenerate)
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	s.app = app
	return s
}

// App exposes the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("web ui listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown cancels runs in flight and stops the server.
func (s *Server) Shutdown() error {
	s.stop()
	return s.app.Shutdown()
}

// runContext bounds a pipeline run by writeTimeout and by Shutdown.
// fasthttp does not report client disconnects, so a run whose client went
// away keeps going until one of those fires.
func (s *Server) runContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(c.UserContext(), writeTimeout)
	stopAfter := context.AfterFunc(s.baseCtx, cancel)
	return ctx, func() {
		stopAfter()
		cancel()
	}
}

type pageData struct {
	URL         string
	Result      *model.Result
	StatusClass string
	JobsJSON    string
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	return s.render(c, pageData{})
}

func (s *Server) handleForm(c *fiber.Ctx) error {
	url := c.FormValue("url")
	ctx, cancel := s.runContext(c)
	defer cancel()
	result := s.runner.Run(ctx, url)

	data := pageData{
		URL:         url,
		Result:      result,
		StatusClass: statusClass(result.Status),
	}
	if len(result.Jobs) > 0 {
		pretty, err := json.MarshalIndent(result.Jobs, "", "  ")
		if err != nil {
			s.logger.Warn("formatting jobs failed", "error", err)
		}
		data.JobsJSON = string(pretty)
	}
	return s.render(c, data)
}

func (s *Server) handleGenerate(c *fiber.Ctx) error {
	var req GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}
	if err := s.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validationMessage(err),
		})
	}

	ctx, cancel := s.runContext(c)
	defer cancel()
	return c.JSON(s.runner.Run(ctx, req.URL))
}

func (s *Server) render(c *fiber.Ctx, data pageData) error {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "render page: "+err.Error())
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}

func statusClass(status model.Status) string {
	switch {
	case status == model.StatusOK:
		return "ok"
	case status.IsWarning():
		return "warning"
	default:
		return "error"
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	switch verrs[0].Tag() {
	case "required":
		return "url is required"
	default:
		return "url must be a valid URL"
	}
}

func requestLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.Info("http request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"latency", time.Since(start).String(),
		)
		return err
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
