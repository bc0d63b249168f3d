package identity

import (
	"errors"
	"net/url"
	"testing"

	"lease-mining-go/internal/models"
)

const testToken = "123456:test-bot-token"

func signedInitData(t *testing.T, user string) string {
	t.Helper()
	values := url.Values{}
	values.Set("auth_date", "1717000000")
	values.Set("query_id", "AAHdF6IQAAAAAN0XohDhrOrc")
	values.Set("user", user)
	values.Set("hash", Sign(values, testToken))
	return values.Encode()
}

func TestParseInitData(t *testing.T) {
	raw := signedInitData(t, `{"id":42,"first_name":"Ada","last_name":"Lovelace","username":"ada","photo_url":"https://example.com/a.png"}`)

	user, err := ParseInitData(raw, testToken)
	if err != nil {
		t.Fatalf("ParseInitData failed: %v", err)
	}
	if user.Id != 42 || user.FirstName != "Ada" || user.Username != "ada" || user.PhotoUrl == "" {
		t.Errorf("Unexpected user: %+v", user)
	}
	if user.DisplayName() != "Ada Lovelace" {
		t.Errorf("Unexpected display name %q", user.DisplayName())
	}
}

func TestParseInitDataErrors(t *testing.T) {
	valid := signedInitData(t, `{"id":42,"first_name":"Ada"}`)
	tampered, _ := url.ParseQuery(valid)
	tampered.Set("user", `{"id":1,"first_name":"Mallory"}`)

	unsigned := url.Values{}
	unsigned.Set("user", `{"id":42,"first_name":"Ada"}`)

	tests := []struct {
		name     string
		initData string
		token    string
		wantErr  error
	}{
		{"empty", "", testToken, ErrNoInitData},
		{"bad query", "%zz", "", ErrMalformed},
		{"no user", "auth_date=1", "", ErrNoUser},
		{"user not json", "user=%7Bnope", "", ErrMalformed},
		{"user without id", "user=%7B%22first_name%22%3A%22Ada%22%7D", "", ErrMalformed},
		{"tampered", tampered.Encode(), testToken, ErrBadSignature},
		{"unsigned", unsigned.Encode(), testToken, ErrMissingHash},
		{"wrong token", valid, "other-token", ErrBadSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInitData(tt.initData, tt.token)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseInitDataWithoutToken(t *testing.T) {
	user, err := ParseInitData("user=%7B%22id%22%3A7%2C%22first_name%22%3A%22Bo%22%7D", "")
	if err != nil {
		t.Fatalf("ParseInitData failed: %v", err)
	}
	if user.Id != 7 || user.FirstName != "Bo" {
		t.Errorf("Unexpected user: %+v", user)
	}
}

func TestInitDataProviderFallback(t *testing.T) {
	tests := []struct {
		name   string
		cfg    models.IdentityConfig
		wantId int64
		anon   bool
	}{
		{
			name:   "valid init data",
			cfg:    models.IdentityConfig{InitData: signedInitData(t, `{"id":42,"first_name":"Ada"}`), BotToken: testToken, Environment: "production"},
			wantId: 42,
		},
		{
			name:   "development fallback",
			cfg:    models.IdentityConfig{Environment: "development"},
			wantId: 123456789,
		},
		{
			name: "production anonymous",
			cfg:  models.IdentityConfig{Environment: "production"},
			anon: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := NewInitDataProvider(tt.cfg).User()
			if tt.anon {
				if user != nil {
					t.Errorf("Expected anonymous, got %+v", user)
				}
				return
			}
			if user == nil || user.Id != tt.wantId {
				t.Errorf("Expected user %d, got %+v", tt.wantId, user)
			}
		})
	}
}

func TestStaticProviders(t *testing.T) {
	if Anonymous().User() != nil {
		t.Error("Expected anonymous provider to return nil")
	}
	if got := Anonymous().User().DisplayName(); got != "anonymous" {
		t.Errorf("Expected anonymous display name, got %q", got)
	}

	dev := NewStaticProvider(DevUser()).User()
	if dev.Username != "test_user" || dev.DisplayName() != "Test User" {
		t.Errorf("Unexpected dev user: %+v", dev)
	}
}
