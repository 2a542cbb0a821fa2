package server

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"io"
	"math/big"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/encryptcookie"
	"github.com/gofiber/fiber/v3/middleware/session"

	"pecommunity/internal/config"
	"pecommunity/internal/testutil"
)

// TestEncryptCookieSessionRoundTrip verifies that the encryptcookie +
// session middleware stack does not panic when a client replays encrypted
// session cookies across multiple requests.  This was broken in Fiber
// v3.0.0-rc.3 (index-out-of-range in encryptcookie decryption).
func TestEncryptCookieSessionRoundTrip(t *testing.T) {
	secret := "test-secret-that-is-long-enough-for-production"
	encryptionKey := deriveEncryptionKey(secret)

	app := fiber.New()

	// Same order as production: encryptcookie, session, handler
	app.Use(encryptcookie.New(encryptcookie.Config{
		Key: encryptionKey,
	}))

	sessionMiddleware, _ := session.NewWithStore(session.Config{
		Storage:        testutil.NewMemoryStore(),
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	})
	app.Use(sessionMiddleware)

	app.Post("/session-set", func(c fiber.Ctx) error {
		sess := session.FromContext(c)
		if sess == nil {
			return c.Status(500).SendString("no session")
		}
		sess.Set("user_sub", "teacher-1")
		return c.SendString("ok")
	})
	app.Get("/session-get", func(c fiber.Ctx) error {
		sess := session.FromContext(c)
		if sess == nil {
			return c.Status(500).SendString("no session")
		}
		val, _ := sess.Get("user_sub").(string)
		return c.SendString(val)
	})

	req, _ := http.NewRequest("POST", "/session-set", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request 1 failed: %v", err)
	}
	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("request 1: expected 200, got %d: %s", resp.StatusCode, body)
	}

	cookies := resp.Cookies()
	if len(cookies) == 0 {
		t.Fatal("request 1: no cookies returned")
	}

	for i := 2; i <= 3; i++ {
		req, _ := http.NewRequest("GET", "/session-get", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}

		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request %d failed (possible encryptcookie panic): %v", i, err)
		}
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != 200 {
			t.Fatalf("request %d: expected 200, got %d: %s", i, resp.StatusCode, body)
		}
		if string(body) != "teacher-1" {
			t.Errorf("request %d: expected session value 'teacher-1', got %q", i, body)
		}
		if next := resp.Cookies(); len(next) > 0 {
			cookies = next
		}
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Env:           "development",
		BaseURL:       "http://localhost:3000",
		SessionSecret: "test-secret-that-is-long-enough-for-production",
		MaxUploadMB:   10,
		SiteTitle:     "PE Community",
	}
}

func TestNew_JSONErrors(t *testing.T) {
	s := New(testConfig(), testutil.NewMemoryStore())
	s.App.Get("/boom", func(c fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})

	req, _ := http.NewRequest("GET", "/boom", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != fiber.StatusTeapot {
		t.Errorf("status = %d, want %d", resp.StatusCode, fiber.StatusTeapot)
	}
	if !strings.Contains(string(body), `"error":"short and stout"`) {
		t.Errorf("body = %s, want JSON error envelope", body)
	}
}

func TestNew_RateLimitSkipsProbes(t *testing.T) {
	s := New(testConfig(), testutil.NewMemoryStore())
	s.App.Get("/healthz", func(c fiber.Ctx) error { return c.SendString("ok") })
	s.App.Get("/api/stages", func(c fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 105; i++ {
		req, _ := http.NewRequest("GET", "/healthz", nil)
		resp, err := s.App.Test(req)
		if err != nil {
			t.Fatalf("app.Test() error = %v", err)
		}
		if resp.StatusCode != 200 {
			t.Fatalf("probe %d limited with status %d", i, resp.StatusCode)
		}
	}

	var last int
	for i := 0; i < 101; i++ {
		req, _ := http.NewRequest("GET", "/api/stages", nil)
		resp, err := s.App.Test(req)
		if err != nil {
			t.Fatalf("app.Test() error = %v", err)
		}
		last = resp.StatusCode
	}
	if last != fiber.StatusTooManyRequests {
		t.Errorf("101st API request status = %d, want %d", last, fiber.StatusTooManyRequests)
	}
}

func TestBodyLimit(t *testing.T) {
	tests := []struct {
		mb       int
		expected int
	}{
		{0, 4 * 1024 * 1024},
		{1, 4 * 1024 * 1024},
		{50, 51 * 1024 * 1024},
	}

	for _, tt := range tests {
		cfg := &config.Config{MaxUploadMB: tt.mb}
		if got := bodyLimit(cfg); got != tt.expected {
			t.Errorf("bodyLimit(%d MB) = %d, want %d", tt.mb, got, tt.expected)
		}
	}
}

func TestDeriveEncryptionKey(t *testing.T) {
	a := deriveEncryptionKey("secret-a")
	b := deriveEncryptionKey("secret-b")

	if a == b {
		t.Error("different secrets must derive different keys")
	}
	if a != deriveEncryptionKey("secret-a") {
		t.Error("key derivation must be deterministic")
	}
	if len(a) != 44 {
		t.Errorf("key length = %d, want 44 (base64 of 32 bytes)", len(a))
	}
}

// writeSelfSignedPair writes a certificate and key for 127.0.0.1 into dir.
func writeSelfSignedPair(t *testing.T, dir string) (certFile, keyFile string, der []byte) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "pecommunity-test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		IsCA:                  true,
		BasicConstraintsValid: true,
	}
	der, err = x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate() error = %v", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("MarshalECPrivateKey() error = %v", err)
	}

	certFile = filepath.Join(dir, "tls.crt")
	keyFile = filepath.Join(dir, "tls.key")
	if err := os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600); err != nil {
		t.Fatal(err)
	}
	return certFile, keyFile, der
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() error = %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

func TestStart_TLSServesCertificate(t *testing.T) {
	certFile, keyFile, der := writeSelfSignedPair(t, t.TempDir())

	cfg := testConfig()
	cfg.ServerAddr = freeAddr(t)
	cfg.TLSEnabled = true
	cfg.TLSCertFile = certFile
	cfg.TLSKeyFile = keyFile

	s := New(cfg, testutil.NewMemoryStore())
	startErr := make(chan error, 1)
	go func() { startErr <- s.Start() }()
	defer s.Shutdown()

	deadline := time.Now().Add(5 * time.Second)
	for {
		select {
		case err := <-startErr:
			t.Fatalf("Start() returned %v", err)
		default:
		}

		conn, err := tls.Dial("tcp4", cfg.ServerAddr, &tls.Config{InsecureSkipVerify: true})
		if err == nil {
			state := conn.ConnectionState()
			conn.Close()
			if len(state.PeerCertificates) == 0 || string(state.PeerCertificates[0].Raw) != string(der) {
				t.Fatal("server did not present the configured certificate")
			}
			if state.Version < tls.VersionTLS12 {
				t.Errorf("negotiated TLS version %x, want >= 1.2", state.Version)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("TLS server never accepted a handshake: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestStart_BadCAFile(t *testing.T) {
	certFile, keyFile, _ := writeSelfSignedPair(t, t.TempDir())

	cfg := testConfig()
	cfg.ServerAddr = freeAddr(t)
	cfg.TLSEnabled = true
	cfg.TLSCertFile = certFile
	cfg.TLSKeyFile = keyFile
	cfg.TLSCAFile = filepath.Join(t.TempDir(), "missing-ca.pem")

	if err := New(cfg, testutil.NewMemoryStore()).Start(); err == nil {
		t.Fatal("Start() with a missing CA file should fail")
	}
}

func TestConfigureTLS(t *testing.T) {
	certFile, keyFile, _ := writeSelfSignedPair(t, t.TempDir())
	pair, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		t.Fatalf("LoadX509KeyPair() error = %v", err)
	}

	pool, err := loadClientCAs(certFile)
	if err != nil {
		t.Fatalf("loadClientCAs() error = %v", err)
	}

	tc := &tls.Config{Certificates: []tls.Certificate{pair}}
	configureTLS(tc, pool)

	if len(tc.Certificates) != 1 {
		t.Error("configureTLS() dropped the loaded certificate")
	}
	if tc.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %x, want TLS 1.2", tc.MinVersion)
	}
	if tc.ClientAuth != tls.RequireAndVerifyClientCert || tc.ClientCAs == nil {
		t.Error("configureTLS() with a CA pool should require client certificates")
	}

	plain := &tls.Config{Certificates: []tls.Certificate{pair}}
	configureTLS(plain, nil)
	if plain.ClientAuth != tls.NoClientCert {
		t.Errorf("ClientAuth = %v without a CA pool, want NoClientCert", plain.ClientAuth)
	}
}

func TestLoadClientCAs(t *testing.T) {
	if pool, err := loadClientCAs(""); pool != nil || err != nil {
		t.Errorf("loadClientCAs(\"\") = %v, %v; want nil, nil", pool, err)
	}

	garbage := filepath.Join(t.TempDir(), "garbage.pem")
	if err := os.WriteFile(garbage, []byte("not a certificate"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadClientCAs(garbage); err == nil {
		t.Error("loadClientCAs() should reject a file without certificates")
	}
}
