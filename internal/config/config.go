package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type AppConfig struct {
	RelayAddr string
	AdminAddr string

	RedisURL        string
	RoomCodeStyle   string
	RoomCodeTTLSec  int
	StrictMoves     bool
	SendBuffer      int
	PingIntervalSec int

	MessagesDir string

	AIPreset          string
	AISelfCheckFilter bool
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		RelayAddr:       ":3000",
		AdminAddr:       ":3001",
		RoomCodeStyle:   "alnum",
		RoomCodeTTLSec:  86400,
		SendBuffer:      32,
		PingIntervalSec: 30,
		AIPreset:        "medium",
	}

	if v := strings.TrimSpace(os.Getenv("RELAY_ADDR")); v != "" {
		cfg.RelayAddr = v
	}
	// ADMIN_ADDR set to "off" disables the admin listener
	if v, ok := os.LookupEnv("ADMIN_ADDR"); ok {
		v = strings.TrimSpace(v)
		if strings.EqualFold(v, "off") {
			v = ""
		}
		cfg.AdminAddr = v
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	if v := strings.TrimSpace(os.Getenv("ROOM_CODE_STYLE")); v != "" {
		cfg.RoomCodeStyle = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("ROOM_CODE_TTL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RoomCodeTTLSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("RELAY_STRICT_MOVES")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.StrictMoves = b
		}
	}
	if v := strings.TrimSpace(os.Getenv("RELAY_SEND_BUFFER")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SendBuffer = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("RELAY_PING_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PingIntervalSec = n
		}
	}

	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))

	if v := strings.TrimSpace(os.Getenv("AI_PRESET")); v != "" {
		cfg.AIPreset = v
	}
	if v := strings.TrimSpace(os.Getenv("AI_SELF_CHECK_FILTER")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AISelfCheckFilter = b
		}
	}

	if cfg.RelayAddr == cfg.AdminAddr {
		return nil, errors.New("RELAY_ADDR and ADMIN_ADDR must differ")
	}
	if cfg.RoomCodeStyle != "alnum" && cfg.RoomCodeStyle != "petname" {
		return nil, fmt.Errorf("ROOM_CODE_STYLE must be alnum or petname, got %q", cfg.RoomCodeStyle)
	}
	if cfg.RedisURL != "" && !strings.HasPrefix(cfg.RedisURL, "redis://") && !strings.HasPrefix(cfg.RedisURL, "rediss://") {
		return nil, fmt.Errorf("REDIS_URL must use redis:// or rediss://")
	}

	return cfg, nil
}
