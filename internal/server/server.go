package server

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/encryptcookie"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/session"

	"pecommunity/internal/config"
)

// Server wraps the Fiber app and configuration.
type Server struct {
	App *fiber.App
	Cfg *config.Config

	// Storage backs sessions and rate limiting; nil means in-memory.
	Storage fiber.Storage
}

// New creates a new server with middleware configured. storage may be nil
// for a single instance without Redis.
func New(cfg *config.Config, storage fiber.Storage) *Server {
	app := fiber.New(fiber.Config{
		AppName:   cfg.SiteTitle,
		BodyLimit: bodyLimit(cfg),
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal Server Error"

			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
			} else {
				log.Printf("Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
			}

			return c.Status(code).JSON(fiber.Map{
				"status": "error",
				"error":  message,
			})
		},
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// CORS middleware
	corsOrigins := cfg.BaseURL
	if cfg.CORSOrigins != "" {
		corsOrigins = cfg.CORSOrigins
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(corsOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Cookie encryption middleware
	encryptionKey := deriveEncryptionKey(cfg.SessionSecret)
	app.Use(encryptcookie.New(encryptcookie.Config{
		Key: encryptionKey,
	}))

	// Session middleware
	sessionMiddleware, _ := session.NewWithStore(session.Config{
		Storage:        storage,
		CookieSecure:   cfg.TLSEnabled || !cfg.IsDev(),
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	})
	app.Use(sessionMiddleware)

	// Rate limiting middleware - 100 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Storage:    storage,
		Next: func(c fiber.Ctx) bool {
			// Probes and the long-lived event stream are not rate limited
			switch c.Path() {
			case "/healthz", "/readyz", "/metrics", "/api/stream":
				return true
			}
			return false
		},
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"status": "error",
				"error":  "Rate limit exceeded. Please try again later.",
			})
		},
	}))

	return &Server{
		App:     app,
		Cfg:     cfg,
		Storage: storage,
	}
}

// Start starts the server with the configured address and TLS settings.
func (s *Server) Start() error {
	if !s.Cfg.TLSEnabled {
		return s.App.Listen(s.Cfg.ServerAddr)
	}

	clientCAs, err := loadClientCAs(s.Cfg.TLSCAFile)
	if err != nil {
		return err
	}
	if clientCAs != nil {
		log.Printf("Starting server with mTLS on %s", s.Cfg.ServerAddr)
	} else {
		log.Printf("Starting server with TLS on %s", s.Cfg.ServerAddr)
	}

	return s.App.Listen(s.Cfg.ServerAddr, fiber.ListenConfig{
		CertFile:    s.Cfg.TLSCertFile,
		CertKeyFile: s.Cfg.TLSKeyFile,
		// Fiber has already loaded the certificate into tc.
		TLSConfigFunc: func(tc *tls.Config) { configureTLS(tc, clientCAs) },
	})
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.App.Shutdown()
}

// bodyLimit leaves room for multipart overhead on top of the upload limit.
func bodyLimit(cfg *config.Config) int {
	limit := cfg.MaxUploadBytes() + 1024*1024
	if limit < 4*1024*1024 {
		return 4 * 1024 * 1024
	}
	return int(limit)
}

// deriveEncryptionKey derives a 32-byte encryption key from the session secret.
func deriveEncryptionKey(secret string) string {
	hash := sha256.Sum256([]byte(secret))
	return base64.StdEncoding.EncodeToString(hash[:])
}

// configureTLS sets the minimum version and, when clientCAs is non-nil,
// requires verified client certificates.
func configureTLS(tc *tls.Config, clientCAs *x509.CertPool) {
	tc.MinVersion = tls.VersionTLS12
	if clientCAs != nil {
		tc.ClientCAs = clientCAs
		tc.ClientAuth = tls.RequireAndVerifyClientCert
	}
}

// loadClientCAs reads the CA bundle used to verify client certificates.
// An empty path disables mTLS.
func loadClientCAs(path string) (*x509.CertPool, error) {
	if path == "" {
		return nil, nil
	}

	caCert, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to parse CA certificate %s", path)
	}
	return pool, nil
}
