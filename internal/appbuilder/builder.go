package appbuilder

import (
    "context"
    "crypto/tls"
    "fmt"
    "net/url"
    "strconv"
    "strings"
    "time"

    "github.com/hashicorp/go-multierror"
    "github.com/park285/cheese-chess/internal/admin"
    "github.com/park285/cheese-chess/internal/chess"
    "github.com/park285/cheese-chess/internal/chess/search"
    "github.com/park285/cheese-chess/internal/config"
    "github.com/park285/cheese-chess/internal/msgcat"
    "github.com/park285/cheese-chess/internal/relay"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"
)

// Relay bundles everything the relay binary serves.
type Relay struct {
    Registry *relay.Registry
    Hub      *relay.Hub
    Admin    *admin.Server // nil when ADMIN_ADDR is off
    Codes    relay.CodeAllocator
    Catalog  *msgcat.Catalog
    Redis    *redis.Client // nil without REDIS_URL
}

func NewRelay(cfg *config.AppConfig, logger *zap.Logger) (*Relay, error) {
    if cfg == nil {
        return nil, fmt.Errorf("nil config")
    }
    if logger == nil {
        logger = zap.NewNop()
    }

    cat, err := msgcat.New(cfg.MessagesDir)
    if err != nil {
        return nil, fmt.Errorf("load messages: %w", err)
    }
    if err := cat.Require(relay.MessageKeys...); err != nil {
        return nil, err
    }

    gen, err := relay.GeneratorFor(cfg.RoomCodeStyle)
    if err != nil {
        return nil, err
    }

    // Room codes (Redis optional)
    out := &Relay{Catalog: cat}
    if strings.TrimSpace(cfg.RedisURL) != "" {
        opts, perr := parseRedisURL(cfg.RedisURL)
        if perr != nil {
            return nil, fmt.Errorf("parse redis url: %w", perr)
        }
        rdb := redis.NewClient(opts)
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        if err := rdb.Ping(ctx).Err(); err != nil {
            _ = rdb.Close()
            return nil, fmt.Errorf("ping redis: %w", err)
        }
        out.Redis = rdb
        out.Codes = relay.NewRedisAllocator(rdb, gen, time.Duration(cfg.RoomCodeTTLSec)*time.Second)
        logger.Info("room_codes_redis", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
    } else {
        out.Codes = relay.NewMemoryAllocator(gen)
        logger.Info("room_codes_memory")
    }

    out.Hub = relay.NewHub(relay.HubOptions{
        SendBuffer:   cfg.SendBuffer,
        PingInterval: time.Duration(cfg.PingIntervalSec) * time.Second,
        Logger:       logger.Named("hub"),
    })
    out.Registry = relay.NewRegistry(relay.Options{
        Codes:       out.Codes,
        Notifier:    out.Hub,
        StrictMoves: cfg.StrictMoves,
        Messages:    cat,
        Logger:      logger.Named("rooms"),
    })
    out.Hub.Attach(out.Registry)

    if cfg.AdminAddr != "" {
        out.Admin = admin.NewServer(out.Registry, out.Hub, logger.Named("admin"))
    }
    return out, nil
}

// Close releases external clients.
func (r *Relay) Close() error {
    var result *multierror.Error
    if r.Redis != nil {
        if err := r.Redis.Close(); err != nil {
            result = multierror.Append(result, fmt.Errorf("close redis: %w", err))
        }
    }
    return result.ErrorOrNil()
}

// NewEngine builds the search engine and session options from AI_* settings.
func NewEngine(cfg *config.AppConfig, logger *zap.Logger) (*search.Engine, []chess.Option, error) {
    if cfg == nil {
        return nil, nil, fmt.Errorf("nil config")
    }
    engine, err := search.NewEngine(cfg.AIPreset, logger)
    if err != nil {
        return nil, nil, fmt.Errorf("init engine: %w", err)
    }
    var opts []chess.Option
    if cfg.AISelfCheckFilter {
        opts = append(opts, chess.WithSelfCheckFilter())
    }
    return engine, opts, nil
}

func parseRedisURL(raw string) (*redis.Options, error) {
    u, err := url.Parse(raw)
    if err != nil {
        return nil, err
    }
    if u.Scheme != "redis" && u.Scheme != "rediss" {
        return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
    }
    host := u.Hostname()
    if host == "" {
        host = "localhost"
    }
    portStr := u.Port()
    if portStr == "" {
        portStr = "6379"
    }
    if _, err := strconv.Atoi(portStr); err != nil {
        return nil, err
    }
    db := 0
    if p := strings.TrimPrefix(u.Path, "/"); p != "" {
        if n, err := strconv.Atoi(p); err == nil {
            db = n
        }
    }
    pass, _ := u.User.Password()
    opts := &redis.Options{Addr: host + ":" + portStr, Username: u.User.Username(), Password: pass, DB: db}
    if u.Scheme == "rediss" {
        opts.TLSConfig = &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
    }
    return opts, nil
}
