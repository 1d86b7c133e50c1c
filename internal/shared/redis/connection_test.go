package redis

import (
	"context"
	"testing"

	"conquest-server/internal/shared/config"
)

func TestOptions(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.RedisConfig
		wantAddr string
		wantDB   int
		wantErr  bool
	}{
		{
			name:     "host and port",
			cfg:      config.RedisConfig{Host: "cache", Port: "6380", DB: 2},
			wantAddr: "cache:6380",
			wantDB:   2,
		},
		{
			name:     "url wins",
			cfg:      config.RedisConfig{URL: "redis://:secret@10.0.0.5:6379/3", Host: "cache", Port: "6380"},
			wantAddr: "10.0.0.5:6379",
			wantDB:   3,
		},
		{
			name:    "bad url",
			cfg:     config.RedisConfig{URL: "http://nope"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := Options(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error got %+v", opts)
				}
				return
			}
			if err != nil {
				t.Fatalf("options: %v", err)
			}
			if opts.Addr != tt.wantAddr || opts.DB != tt.wantDB {
				t.Fatalf("expected %s db %d got %s db %d", tt.wantAddr, tt.wantDB, opts.Addr, opts.DB)
			}
		})
	}
}

func TestDialDisabled(t *testing.T) {
	c, err := Dial(context.Background(), config.RedisConfig{Enabled: false})
	if err != nil || c != nil {
		t.Fatalf("expected no client and no error got %v, %v", c, err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("expected nil close to be a no-op got %v", err)
	}
}
