package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"penpal/compose"
	"penpal/config"
	"penpal/handlers/api"
	"penpal/handlers/web"
	"penpal/inbox"
	"penpal/messaging"
	"penpal/middleware"
	"penpal/storage"
	"penpal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/template/html/v2"
	"github.com/gofiber/websocket/v2"
)

func main() {
	configPath := os.Getenv("PENPAL_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		utils.Log.Error("Failed to load config: %v", err)
		os.Exit(1)
	}
	utils.ConfigureLogging(cfg.Log.Level, cfg.Log.Format)
	utils.Log.Info("Initializing PenPal...")

	if err := utils.InitI18n(cfg.I18n.LocalesDir); err != nil {
		utils.Log.Error("Failed to initialize i18n: %v", err)
	}

	db, err := storage.InitDB(cfg.Storage.DataDir)
	if err != nil {
		utils.Log.Error("Failed to open database: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	sessionStorage := storage.NewSessionStorage(db, 10*time.Minute)
	defer sessionStorage.Close()

	store := session.New(session.Config{
		Storage:        sessionStorage,
		Expiration:     time.Duration(cfg.Server.SessionHours) * time.Hour,
		CookieSecure:   cfg.Server.CookieSecure,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	})

	// The compose flow gets its own, longer timeout
	composeClient, err := messaging.NewClient(cfg.Messaging.BaseURL, messaging.WithTimeout(cfg.ComposeTimeout()))
	if err != nil {
		utils.Log.Error("Failed to create messaging client: %v", err)
		os.Exit(1)
	}
	messagingClient, err := messaging.NewClient(cfg.Messaging.BaseURL, messaging.WithTimeout(cfg.MessagingTimeout()))
	if err != nil {
		utils.Log.Error("Failed to create messaging client: %v", err)
		os.Exit(1)
	}
	coreClient, err := messaging.NewClient(cfg.Core.BaseURL, messaging.WithTimeout(cfg.CoreTimeout()))
	if err != nil {
		utils.Log.Error("Failed to create core client: %v", err)
		os.Exit(1)
	}

	notifications := api.NewNotificationHandler()

	resolver := compose.NewResolver(composeClient,
		compose.WithSearchLimit(cfg.Compose.SearchLimit),
		compose.WithRetryDelay(cfg.RetryDelay()))
	deliverer := compose.NewDeliverer(composeClient, compose.WithDeliveryDelay(cfg.DeliveryDelay()))

	defaults := compose.DefaultDraftOptions()
	defaults.Heading = cfg.Compose.DefaultHeading
	defaults.FooterPrefix = cfg.Compose.DefaultFooterPrefix
	defaults.FontID = cfg.Compose.DefaultFont
	defaults.FontSizePx = cfg.Compose.DefaultFontSize
	defaults.HistoryCapacity = cfg.Compose.UndoCapacity
	if _, err := compose.NewDraft(defaults); err != nil {
		utils.Log.Error("Invalid compose defaults: %v", err)
		os.Exit(1)
	}

	manager := compose.NewManager(cfg.ComposeSessionTTL(), resolver, deliverer, notifications, defaults)
	defer manager.Close()

	inboxService := inbox.NewService(messagingClient, cfg.Compose.InboxLimit)

	authHandler, err := api.NewAuthHandler(cfg.Auth, store, coreClient, cfg.CoreTimeout())
	if err != nil {
		utils.Log.Error("Failed to initialize auth: %v", err)
		os.Exit(1)
	}
	if cfg.Auth.Disabled {
		utils.Log.Warn("Authentication is disabled, every request is %s", cfg.Auth.DevSubject)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimitWindow())
	defer limiter.Stop()

	app := fiber.New(fiber.Config{
		Views:        newViewEngine(cfg),
		ViewsLayout:  "layouts/main",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())
	app.Use(helmet.New(helmet.Config{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "SAMEORIGIN",
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline' https://fonts.googleapis.com; font-src 'self' https://fonts.gstatic.com; connect-src 'self' ws: wss:;",
	}))
	if headers := cfg.GetSecurityHeaders(); len(headers) > 0 {
		app.Use(func(c *fiber.Ctx) error {
			for k, v := range headers {
				c.Set(k, v)
			}
			return c.Next()
		})
	}

	app.Use(middleware.LocaleMiddleware())

	app.Static("/assets", cfg.Server.AssetsDir, fiber.Static{
		Compress:      true,
		CacheDuration: 24 * time.Hour,
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	csrf := middleware.NewCSRF(middleware.CSRFConfig{CookieSecure: cfg.Server.CookieSecure})

	composeHandler := api.NewComposeHandler(manager)
	inboxHandler := api.NewInboxHandler(inboxService)
	lettersHandler := api.NewLettersHandler(messagingClient)
	fontHandler := api.NewFontHandler(storage.NewPreferenceStorage(db))
	i18nHandler := &api.I18nHandler{}

	webCompose := web.NewComposeHandler(composeHandler)
	webInbox := web.NewInboxHandler(inboxService)

	app.Get("/api/i18n/:lang", i18nHandler.GetTranslations)

	protected := app.Group("",
		authHandler.SessionMiddleware(),
		limiter.Handler(),
		csrf.Handler())

	protected.Get("/", func(c *fiber.Ctx) error { return c.Redirect("/inbox") })
	protected.Get("/inbox", webInbox.HandleInbox)
	protected.Get("/compose-letter/:user_id?", webCompose.HandleCompose)

	protected.Get("/ws/notifications", api.UpgradeWebSocket, websocket.New(notifications.HandleWebSocket))

	apiRoutes := protected.Group("/api")
	{
		apiRoutes.Get("/compose", composeHandler.GetSession)
		apiRoutes.Post("/compose/recipients", composeHandler.LoadRecipients)
		apiRoutes.Put("/compose/recipient", composeHandler.SelectRecipient)
		apiRoutes.Put("/compose/body", composeHandler.UpdateBody)
		apiRoutes.Post("/compose/selection", composeHandler.UpdateSelection)
		apiRoutes.Post("/compose/format", composeHandler.Format)
		apiRoutes.Post("/compose/key", composeHandler.HandleKey)
		apiRoutes.Post("/compose/undo", composeHandler.Undo)
		apiRoutes.Post("/compose/redo", composeHandler.Redo)
		apiRoutes.Put("/compose/letter", composeHandler.UpdateLetter)
		apiRoutes.Post("/compose/template", composeHandler.ApplyTemplate)
		apiRoutes.Post("/compose/send", composeHandler.Send)
		apiRoutes.Post("/compose/reset", composeHandler.Reset)

		apiRoutes.Get("/templates", composeHandler.Templates)

		apiRoutes.Get("/fonts", fontHandler.List)
		apiRoutes.Get("/fonts/favorites", fontHandler.Favorites)
		apiRoutes.Put("/fonts/favorites", fontHandler.SetFavorites)
		apiRoutes.Post("/fonts/favorites/:id/toggle", fontHandler.ToggleFavorite)

		apiRoutes.Get("/inbox", inboxHandler.List)
		apiRoutes.Post("/letters/page", lettersHandler.Page)

		apiRoutes.Get("/notifications", notifications.HandleSSE)
	}

	// 404 Handler for undefined routes
	app.Use(func(c *fiber.Ctx) error {
		localizer := middleware.GetLocalizerFromCtx(c)
		if api.IsAPIRequest(c) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": utils.T(localizer, "error_404"),
			})
		}
		return c.Status(fiber.StatusNotFound).Render("error", fiber.Map{
			"Error": utils.T(localizer, "error_404"),
			"Code":  fiber.StatusNotFound,
		})
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		utils.Log.Info("Shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			utils.Log.Error("Shutdown failed: %v", err)
		}
	}()

	if err := listen(app, cfg); err != nil {
		utils.Log.Error("Error starting server: %v", err)
	}
}

func newViewEngine(cfg *config.Config) *html.Engine {
	engine := html.New(cfg.Server.TemplatesDir, ".html")

	engine.AddFunc("lower", strings.ToLower)
	engine.AddFunc("upper", strings.ToUpper)
	engine.AddFunc("trim", strings.TrimSpace)
	engine.AddFunc("join", strings.Join)
	engine.AddFunc("formatDate", func(t time.Time) string {
		return t.Format("Jan 02, 2006 15:04")
	})
	// Embeds a value in an inline script
	engine.AddFunc("toJSON", func(v interface{}) template.JS {
		b, err := json.Marshal(v)
		if err != nil {
			return template.JS("null")
		}
		return template.JS(b)
	})
	engine.AddFunc("add", func(a, b int) int { return a + b })

	engine.Reload(cfg.Server.ReloadViews)
	return engine
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	var details map[string]interface{}

	var appErr *utils.AppError
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &appErr):
		code = appErr.Code
		message = appErr.Message
		details = appErr.Context
		if code >= fiber.StatusInternalServerError {
			utils.Log.Error("Application error: %v", appErr)
		} else {
			utils.Log.Debug("Request rejected: %v", appErr)
		}
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
	default:
		utils.Log.Error("Unhandled error: %v", err)
		message = "Internal Server Error"
	}

	if api.IsAPIRequest(c) {
		body := fiber.Map{"error": message}
		if len(details) > 0 {
			body["details"] = details
		}
		return c.Status(code).JSON(body)
	}

	return c.Status(code).Render("error", fiber.Map{
		"Error": message,
		"Code":  code,
	})
}

func listen(app *fiber.App, cfg *config.Config) error {
	if !cfg.SSL.Enabled {
		utils.Log.Info("Starting server on port %d...", cfg.Server.Port)
		return app.Listen(fmt.Sprintf(":%d", cfg.Server.Port))
	}

	if cfg.SSL.AutoRedirect {
		go func() {
			redirect := fiber.New(fiber.Config{DisableStartupMessage: true})
			redirect.Use(func(c *fiber.Ctx) error {
				host := cfg.SSL.Domain
				if host == "" {
					host = strings.Split(c.Hostname(), ":")[0]
				}
				if cfg.SSL.Port != 443 {
					host = fmt.Sprintf("%s:%d", host, cfg.SSL.Port)
				}
				return c.Redirect("https://"+host+c.OriginalURL(), fiber.StatusMovedPermanently)
			})
			if err := redirect.Listen(fmt.Sprintf(":%d", cfg.SSL.HTTPPort)); err != nil {
				utils.Log.Error("HTTP redirect server failed: %v", err)
			}
		}()
	}

	utils.Log.Info("Starting HTTPS server on port %d...", cfg.SSL.Port)
	return app.ListenTLS(fmt.Sprintf(":%d", cfg.SSL.Port), cfg.SSL.CertFile, cfg.SSL.KeyFile)
}
