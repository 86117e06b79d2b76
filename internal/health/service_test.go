package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redisv8 "github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"

	"jobcrawler/internal/platform/redis"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func check(t *testing.T, h *HealthHandler) (int, OverallHealth) {
	t.Helper()
	app := fiber.New()
	app.Get("/v1/health", h.HandleHealth)
	resp, err := app.Test(httptest.NewRequest("GET", "/v1/health", nil))
	if err != nil {
		t.Fatal(err)
	}
	var body OverallHealth
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, body
}

func TestHealth(t *testing.T) {
	mr := miniredis.RunT(t)
	r := redis.NewFromClient(redisv8.NewClient(&redisv8.Options{Addr: mr.Addr()}))

	h := NewHealthHandler(r, pinger{})
	if code, body := check(t, h); code != fiber.StatusServiceUnavailable || body.OverallStatus != "starting" {
		t.Fatalf("before ready = %d %+v", code, body)
	}
	h.SetReady()
	if code, body := check(t, h); code != fiber.StatusOK || body.Components["store"].Status != "ok" {
		t.Fatalf("ready = %d %+v", code, body)
	}

	down := NewHealthHandler(r, pinger{err: errors.New("connection refused")})
	down.SetReady()
	code, body := check(t, down)
	if code != fiber.StatusServiceUnavailable || body.OverallStatus != "error" || body.Components["store"].Error == "" {
		t.Fatalf("store down = %d %+v", code, body)
	}
}
