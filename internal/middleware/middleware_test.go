package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const secret = "test-secret"

func newApp(secret string) *fiber.App {
	app := fiber.New()
	app.Get("/admin", Auth(secret), RequireRole(RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("userEmail").(string))
	})
	return app
}

func get(t *testing.T, app *fiber.App, token string) int {
	t.Helper()
	req := httptest.NewRequest("GET", "/admin", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp.StatusCode
}

func TestAuthAcceptsAdminToken(t *testing.T) {
	token, err := SignToken(secret, "ops", "ops@example.com", RoleAdmin, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if code := get(t, newApp(secret), token); code != fiber.StatusOK {
		t.Errorf("status = %d, want 200", code)
	}
}

func TestAuthRejects(t *testing.T) {
	app := newApp(secret)

	userToken, _ := SignToken(secret, "fan", "fan@example.com", RoleUser, time.Hour)
	foreign, _ := SignToken("other-secret", "ops", "ops@example.com", RoleAdmin, time.Hour)
	expired, _ := SignToken(secret, "ops", "ops@example.com", RoleAdmin, -time.Minute)
	noSubject, _ := SignToken(secret, "", "ops@example.com", RoleAdmin, time.Hour)
	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: RoleAdmin}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"no header", "", fiber.StatusUnauthorized},
		{"garbage", "not-a-jwt", fiber.StatusUnauthorized},
		{"wrong key", foreign, fiber.StatusUnauthorized},
		{"expired", expired, fiber.StatusUnauthorized},
		{"no subject", noSubject, fiber.StatusUnauthorized},
		{"alg none", unsigned, fiber.StatusUnauthorized},
		{"not admin", userToken, fiber.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if code := get(t, app, tc.token); code != tc.want {
				t.Errorf("status = %d, want %d", code, tc.want)
			}
		})
	}
}

func TestAuthWithoutSecretIsClosed(t *testing.T) {
	token, _ := SignToken("", "ops", "ops@example.com", RoleAdmin, time.Hour)
	if code := get(t, newApp(""), token); code != fiber.StatusUnauthorized {
		t.Errorf("status = %d, want 401", code)
	}
}

func TestWriteLimiter(t *testing.T) {
	app := fiber.New()
	app.Post("/write", WriteLimiter(2), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	var codes []int
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/write", nil))
		if err != nil {
			t.Fatal(err)
		}
		codes = append(codes, resp.StatusCode)
	}
	if codes[0] != fiber.StatusCreated || codes[1] != fiber.StatusCreated || codes[2] != fiber.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}

func TestWriteLimiterDisabled(t *testing.T) {
	app := fiber.New()
	app.Post("/write", WriteLimiter(0), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})
	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/write", nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != fiber.StatusCreated {
			t.Fatalf("request %d: status %d", i, resp.StatusCode)
		}
	}
}
