package config

import "testing"

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TG_BOT_TOKEN", "123:abc")
	t.Setenv("TG_CHAT_ID", "-100555")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PageSize != 100 {
		t.Errorf("PageSize = %d, want 100", cfg.PageSize)
	}
	if cfg.APIBase != "https://api.telegram.org" {
		t.Errorf("APIBase = %q", cfg.APIBase)
	}
	if cfg.ChatID != -100555 {
		t.Errorf("ChatID = %d, want -100555", cfg.ChatID)
	}
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("TG_BOT_TOKEN", "")
	t.Setenv("TG_CHAT_ID", "1")
	if _, err := Load(); err == nil {
		t.Error("Load succeeded without TG_BOT_TOKEN")
	}
}

func TestLoadRequiresChatID(t *testing.T) {
	t.Setenv("TG_BOT_TOKEN", "123:abc")
	t.Setenv("TG_CHAT_ID", "")
	if _, err := Load(); err == nil {
		t.Error("Load succeeded without TG_CHAT_ID")
	}
}

func TestLoadRejectsOversizedPage(t *testing.T) {
	setRequired(t)
	t.Setenv("PAGE_SIZE", "500")
	if _, err := Load(); err == nil {
		t.Error("Load accepted PAGE_SIZE beyond the transport ceiling")
	}
}
