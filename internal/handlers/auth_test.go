package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"stockbot/internal/auth"
	"stockbot/internal/config"
)

func authHandler(t *testing.T) *Handler {
	t.Helper()
	botHash, err := auth.HashSecret("bot-secret")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	adminHash, err := auth.HashSecret("admin-secret")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	return &Handler{cfg: config.Config{
		JWTSecret:       "jwt-secret",
		TokenTTL:        time.Hour,
		BotClientID:     "bot",
		BotSecretHash:   botHash,
		AdminClientID:   "admin",
		AdminSecretHash: adminHash,
	}}
}

func issueToken(t *testing.T, h *Handler, body string) (int, string) {
	t.Helper()
	recorder := postJSON(t, h.Token, body)
	if recorder.Code != http.StatusOK {
		return recorder.Code, ""
	}
	var payload map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	return recorder.Code, payload["token"]
}

func TestTokenIssuesBotScope(t *testing.T) {
	h := authHandler(t)
	code, token := issueToken(t, h, `{"client_id":"bot","client_secret":"bot-secret"}`)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	claims, err := auth.ParseToken("jwt-secret", token)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.ClientID != "bot" || claims.Admin {
		t.Fatalf("unexpected claims: %#v", claims)
	}
}

func TestTokenIssuesAdminScope(t *testing.T) {
	h := authHandler(t)
	code, token := issueToken(t, h, `{"client_id":"admin","client_secret":"admin-secret"}`)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	claims, err := auth.ParseToken("jwt-secret", token)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if !claims.Admin {
		t.Fatalf("admin credentials must yield admin scope")
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	h := authHandler(t)
	if code, _ := issueToken(t, h, `{"client_id":"bot","client_secret":"wrong"}`); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestTokenRejectsUnknownClient(t *testing.T) {
	h := authHandler(t)
	if code, _ := issueToken(t, h, `{"client_id":"stranger","client_secret":"bot-secret"}`); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestTokenRejectsUnconfiguredCredentials(t *testing.T) {
	h := &Handler{cfg: config.Config{JWTSecret: "jwt-secret", BotClientID: "bot"}}
	if code, _ := issueToken(t, h, `{"client_id":"bot","client_secret":"anything"}`); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}
