package bridge

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/congo_bridge/internal/chain"
	"github.com/congo-pay/congo_bridge/internal/ledger"
)

func setupHandlerApp(t *testing.T, led ledger.Ledger, minter chain.Minter) *fiber.App {
	t.Helper()
	svc := newTestBridge(led, chain.NewStaticDepositSource(0), minter)
	h := NewHandler(svc, 6)

	app := fiber.New()
	app.Get("/bridge/balance/:address", h.Balance)
	app.Post("/bridge/process", h.Process)
	app.Get("/bridge/status/:address", h.Status)
	app.Get("/bridge/intent/:id", h.Intent)
	return app
}

func TestHandlerBalanceFormatsDecimalString(t *testing.T) {
	led := ledger.NewInMemory()
	ledger.SeedBalance(led, testAddress, 12_500_000)
	app := setupHandlerApp(t, led, &chain.StaticMinter{})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/bridge/balance/"+testAddress, nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body map[string]string
	payload, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err := json.Unmarshal(payload, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["balance"] != "12.5" {
		t.Fatalf("expected balance \"12.5\", got %q", body["balance"])
	}
}

func TestHandlerProcessWithdrawal(t *testing.T) {
	led := ledger.NewInMemory()
	ledger.SeedBalance(led, testAddress, 100_000_000)
	app := setupHandlerApp(t, led, &chain.StaticMinter{})

	reqBody := `{"userAddress":"` + testAddress + `","amount":"60","fromNetwork":"chainA"}`
	req := httptest.NewRequest(fiber.MethodPost, "/bridge/process", strings.NewReader(reqBody))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Success    bool   `json:"success"`
		NewBalance string `json:"newBalance"`
	}
	payload, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err := json.Unmarshal(payload, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success {
		t.Fatalf("expected success response, got %s", payload)
	}
	if body.NewBalance != "40" {
		t.Fatalf("expected new balance \"40\", got %q", body.NewBalance)
	}
}

func TestHandlerProcessNumericAmount(t *testing.T) {
	led := ledger.NewInMemory()
	ledger.SeedBalance(led, testAddress, 100_000_000)
	app := setupHandlerApp(t, led, &chain.StaticMinter{})

	reqBody := `{"userAddress":"` + testAddress + `","amount":12.5}`
	req := httptest.NewRequest(fiber.MethodPost, "/bridge/process", strings.NewReader(reqBody))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestHandlerProcessInsufficientBalance(t *testing.T) {
	led := ledger.NewInMemory()
	ledger.SeedBalance(led, testAddress, 100_000_000)
	app := setupHandlerApp(t, led, &chain.StaticMinter{})

	reqBody := `{"userAddress":"` + testAddress + `","amount":"150"}`
	req := httptest.NewRequest(fiber.MethodPost, "/bridge/process", strings.NewReader(reqBody))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var body map[string]string
	payload, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err := json.Unmarshal(payload, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(body["error"], "insufficient balance") {
		t.Fatalf("expected insufficient balance error, got %q", body["error"])
	}
}

func TestHandlerProcessMissingParameters(t *testing.T) {
	app := setupHandlerApp(t, ledger.NewInMemory(), &chain.StaticMinter{})

	req := httptest.NewRequest(fiber.MethodPost, "/bridge/process", strings.NewReader(`{}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHandlerIntentLookup(t *testing.T) {
	led := ledger.NewInMemory()
	ledger.SeedBalance(led, testAddress, 100_000_000)
	app := setupHandlerApp(t, led, &chain.StaticMinter{})

	reqBody := `{"userAddress":"` + testAddress + `","amount":"60"}`
	req := httptest.NewRequest(fiber.MethodPost, "/bridge/process", strings.NewReader(reqBody))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var processed struct {
		IntentID string `json:"intentId"`
	}
	payload, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err := json.Unmarshal(payload, &processed); err != nil {
		t.Fatalf("decode process response: %v", err)
	}
	if processed.IntentID == "" {
		t.Fatalf("expected an intent id in %s", payload)
	}

	resp2, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/bridge/intent/"+processed.IntentID, nil))
	if err != nil {
		t.Fatalf("intent lookup: %v", err)
	}
	if resp2.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp2.StatusCode)
	}

	var intent struct {
		State  string `json:"state"`
		Amount string `json:"amount"`
	}
	payload2, _ := io.ReadAll(resp2.Body)
	resp2.Body.Close()
	if err := json.Unmarshal(payload2, &intent); err != nil {
		t.Fatalf("decode intent: %v", err)
	}
	if intent.State != "confirmed" || intent.Amount != "60" {
		t.Fatalf("unexpected intent body: %s", payload2)
	}

	resp404, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/bridge/intent/does-not-exist", nil))
	if err != nil {
		t.Fatalf("unknown intent lookup: %v", err)
	}
	if resp404.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown intent, got %d", resp404.StatusCode)
	}
}

func TestHandlerStatus(t *testing.T) {
	led := ledger.NewInMemory()
	ledger.SeedBalance(led, testAddress, 100_000_000)
	app := setupHandlerApp(t, led, &chain.StaticMinter{})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/bridge/status/"+testAddress, nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Balance  string `json:"balance"`
		IsActive bool   `json:"isActive"`
	}
	payload, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err := json.Unmarshal(payload, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Balance != "100" || !body.IsActive {
		t.Fatalf("unexpected status body: %s", payload)
	}
}
