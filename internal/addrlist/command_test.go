package addrlist

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildCommand(t *testing.T) {
	tests := []struct {
		name    string
		address string
		list    string
		timeout string
		want    string
	}{
		{
			name:    "no timeout",
			address: "10.0.0.1",
			list:    "blocklist",
			want:    "/ip firewall address-list add address=10.0.0.1 list=blocklist",
		},
		{
			name:    "with timeout",
			address: "10.0.0.1",
			list:    "blocklist",
			timeout: "2d00:37:25",
			want:    "/ip firewall address-list add address=10.0.0.1 list=blocklist timeout=2d00:37:25",
		},
		{
			name:    "cidr",
			address: "192.168.0.0/24",
			list:    "lan",
			timeout: "5:17:00",
			want:    "/ip firewall address-list add address=192.168.0.0/24 list=lan timeout=5:17:00",
		},
		{
			name:    "hostname",
			address: "example.com",
			list:    "allow",
			want:    "/ip firewall address-list add address=example.com list=allow",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildCommand(tt.address, tt.list, tt.timeout)
			if got != tt.want {
				t.Errorf("BuildCommand() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildCommandTimeoutSuffix(t *testing.T) {
	got := BuildCommand("10.0.0.1", "blocklist", "2d00:37:25")
	if !strings.HasSuffix(got, " timeout=2d00:37:25") {
		t.Errorf("expected timeout suffix, got %q", got)
	}
	if strings.Contains(BuildCommand("10.0.0.1", "blocklist", ""), "timeout=") {
		t.Error("expected no timeout argument for empty timeout")
	}
}

func TestNormalizeTimeout(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2d 00:37:25", "2d00:37:25"},
		{"2d00:37:25", "2d00:37:25"},
		{"5:17:00", "5:17:00"},
		{"10d 1:02:03", "10d1:02:03"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := NormalizeTimeout(tt.in)
			if got != tt.want {
				t.Errorf("NormalizeTimeout(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if again := NormalizeTimeout(got); again != got {
				t.Errorf("NormalizeTimeout is not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestPrepareTimeout(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"empty means none", "", "", false},
		{"blank means none", "   ", "", false},
		{"spaced days", "2d 00:37:25", "2d00:37:25", false},
		{"surrounding whitespace", " 5:17:00 ", "5:17:00", false},
		{"garbage", "abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PrepareTimeout(DefaultValidator{}, tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTimeout) {
					t.Fatalf("expected ErrInvalidTimeout, got %v", err)
				}
				var te *TimeoutError
				if !errors.As(err, &te) || te.Value != strings.TrimSpace(tt.in) {
					t.Errorf("expected *TimeoutError carrying %q, got %v", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("PrepareTimeout(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
