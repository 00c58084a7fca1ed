package telegram_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hoursync/pkg/telegram"
)

func TestSendMessage(t *testing.T) {
	var got telegram.SendMessageRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sendMessage" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(telegram.APIResponse{OK: true})
	}))
	defer ts.Close()

	bot := telegram.NewBot("test-token")
	bot.SetAPIURL(ts.URL)

	if err := bot.SendMessage(42, "no task record matches \"X\""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ChatID != 42 || got.Text != "no task record matches \"X\"" {
		t.Errorf("payload = %+v", got)
	}
	if got.ParseMode != "" {
		t.Errorf("parse mode = %q, want empty", got.ParseMode)
	}
}

func TestSendMessageAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(telegram.APIResponse{OK: false, Description: "chat not found"})
	}))
	defer ts.Close()

	bot := telegram.NewBot("test-token")
	bot.SetAPIURL(ts.URL)

	err := bot.SendMessage(42, "hello")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("err = %v, want the API description surfaced", err)
	}
}
