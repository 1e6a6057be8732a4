package restapi

import (
	"encoding/base64"
	"testing"
)

func TestParseAuthorizationHeader_Basic(t *testing.T) {
	header := "Basic " + base64.StdEncoding.EncodeToString([]byte("daryl:hunter2"))
	creds := parseAuthorizationHeader(header)

	basic, ok := creds.(BasicCredentials)
	if !ok {
		t.Fatalf("creds = %T, want BasicCredentials", creds)
	}
	if basic.Username != "daryl" || basic.Password != "hunter2" {
		t.Errorf("got %q/%q, want daryl/hunter2", basic.Username, basic.Password)
	}
}

func TestParseAuthorizationHeader_Bearer(t *testing.T) {
	creds := parseAuthorizationHeader("Bearer abcdef123456")

	bearer, ok := creds.(BearerCredentials)
	if !ok {
		t.Fatalf("creds = %T, want BearerCredentials", creds)
	}
	if bearer.Token != "abcdef123456" {
		t.Errorf("token = %q, want %q", bearer.Token, "abcdef123456")
	}
}

func TestParseAuthorizationHeader_Invalid(t *testing.T) {
	cases := []struct {
		name   string
		header string
	}{
		{"empty", ""},
		{"scheme only", "Bearer"},
		{"unknown scheme", "Digest abc"},
		{"basic bad base64", "Basic !!!not-base64!!!"},
		{"basic no colon", "Basic " + base64.StdEncoding.EncodeToString([]byte("no-colon"))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if creds := parseAuthorizationHeader(tc.header); creds != nil {
				t.Errorf("creds = %#v, want nil", creds)
			}
		})
	}
}
