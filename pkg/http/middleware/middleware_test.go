package middleware

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRateLimitApp(rl *RateLimiter) *fiber.App {
	app := fiber.New()
	app.Use(RequestMiddleware(), rl.Handler())
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	return app
}

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	app := setupRateLimitApp(NewRateLimiter(1, 5))

	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/test", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, "request %d", i)
	}
}

func TestRateLimiter_BlocksOverBurst(t *testing.T) {
	app := setupRateLimitApp(NewRateLimiter(1, 2))

	for i := 0; i < 2; i++ {
		_, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/test", nil))
		require.NoError(t, err)
	}

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/test", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var got map[string]string
	require.NoError(t, sonic.Unmarshal(body, &got))
	assert.NotEmpty(t, got["error"])
}

func TestRateLimiter_KeyedByCaller(t *testing.T) {
	app := setupRateLimitApp(NewRateLimiter(1, 1))

	for _, user := range []string{"alice", "bob"} {
		req := httptest.NewRequest(fiber.MethodGet, "/test", nil)
		req.Header.Set("X-authentik-username", user)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, user)
	}

	req := httptest.NewRequest(fiber.MethodGet, "/test", nil)
	req.Header.Set("X-authentik-username", "alice")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(0, 10)
	assert.Nil(t, rl)
	assert.True(t, rl.Allow("anyone"))
	assert.Zero(t, rl.Cleanup(time.Second))
}

func TestRateLimiter_Cleanup(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 1)
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	now = now.Add(5 * time.Minute)
	rl.Allow("b")

	assert.Equal(t, 1, rl.Cleanup(visitorTTL))
	assert.Len(t, rl.visitors, 1)
}

func TestRequestMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(RequestMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("request_id").(string))
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc")
	resp, err = app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "abc", string(body))
}

func TestRealIP(t *testing.T) {
	app := fiber.New()
	app.Use(RealIPMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("ip").(string))
	})

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "10.0.0.1", string(body))

	req = httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", " 10.0.0.9 ")
	resp, err = app.Test(req)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Equal(t, "10.0.0.9", string(body))
}

func TestExceptionMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ExceptionMiddleware)
	app.Get("/", func(c *fiber.Ctx) error {
		panic("boom")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
