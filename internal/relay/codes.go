package relay

import (
    "context"
    "crypto/rand"
    "fmt"
    "io"
    "strings"
    "sync"
    "time"

    petname "github.com/dustinkirkland/golang-petname"
    "github.com/redis/go-redis/v9"
)

const (
    codeAttempts  = 5
    defaultCodeTTL = 24 * time.Hour
)

// CodeAllocator hands out room codes unique among open rooms.
type CodeAllocator interface {
    Reserve(ctx context.Context) (string, error)
    Release(ctx context.Context, code string) error
}

// CodeGenerator produces one candidate code.
type CodeGenerator func() (string, error)

// GeneratorFor maps a ROOM_CODE_STYLE value to a generator.
func GeneratorFor(style string) (CodeGenerator, error) {
    switch strings.ToLower(strings.TrimSpace(style)) {
    case "", "alnum":
        return AlnumCode, nil
    case "petname":
        return PetnameCode, nil
    default:
        return nil, fmt.Errorf("unknown room code style %q", style)
    }
}

// AlnumCode returns 6 upper-case alphanumerics.
func AlnumCode() (string, error) { return alnumFrom(rand.Reader) }

// alnumFrom draws uniformly from src; bytes at or above the largest multiple
// of 36 are discarded.
func alnumFrom(src io.Reader) (string, error) {
    const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
    const limit = 256 - 256%len(letters)
    out := make([]byte, 0, 6)
    buf := make([]byte, 8)
    for len(out) < 6 {
        if _, err := io.ReadFull(src, buf); err != nil {
            return "", err
        }
        for _, v := range buf {
            if int(v) >= limit || len(out) == 6 {
                continue
            }
            out = append(out, letters[int(v)%len(letters)])
        }
    }
    return string(out), nil
}

// PetnameCode returns two words such as "brave-otter".
func PetnameCode() (string, error) {
    return petname.Generate(2, "-"), nil
}

// MemoryAllocator keeps reserved codes in process.
type MemoryAllocator struct {
    gen  CodeGenerator
    mu   sync.Mutex
    used map[string]struct{}
}

func NewMemoryAllocator(gen CodeGenerator) *MemoryAllocator {
    if gen == nil { gen = AlnumCode }
    return &MemoryAllocator{gen: gen, used: make(map[string]struct{})}
}

func (a *MemoryAllocator) Reserve(ctx context.Context) (string, error) {
    for i := 0; i < codeAttempts; i++ {
        if err := ctx.Err(); err != nil { return "", err }
        c, err := a.gen()
        if err != nil { return "", err }
        a.mu.Lock()
        if _, taken := a.used[c]; !taken {
            a.used[c] = struct{}{}
            a.mu.Unlock()
            return c, nil
        }
        a.mu.Unlock()
    }
    return "", ErrCodeExhausted
}

func (a *MemoryAllocator) Release(_ context.Context, code string) error {
    a.mu.Lock()
    delete(a.used, code)
    a.mu.Unlock()
    return nil
}

// InUse reports how many codes are currently reserved.
func (a *MemoryAllocator) InUse() int {
    a.mu.Lock()
    defer a.mu.Unlock()
    return len(a.used)
}

// RedisAllocator reserves codes with SET NX so several relay processes never
// hand out the same code. Keys expire after ttl in case a process dies.
type RedisAllocator struct {
    rdb *redis.Client
    gen CodeGenerator
    ttl time.Duration
}

func NewRedisAllocator(rdb *redis.Client, gen CodeGenerator, ttl time.Duration) *RedisAllocator {
    if gen == nil { gen = AlnumCode }
    if ttl <= 0 { ttl = defaultCodeTTL }
    return &RedisAllocator{rdb: rdb, gen: gen, ttl: ttl}
}

func (a *RedisAllocator) key(code string) string { return "relay:room:" + strings.TrimSpace(code) }

func (a *RedisAllocator) Reserve(ctx context.Context) (string, error) {
    for i := 0; i < codeAttempts; i++ {
        c, err := a.gen()
        if err != nil { return "", err }
        ok, err := a.rdb.SetNX(ctx, a.key(c), time.Now().UTC().Format(time.RFC3339), a.ttl).Result()
        if err != nil { return "", fmt.Errorf("reserve room code: %w", err) }
        if ok { return c, nil }
    }
    return "", ErrCodeExhausted
}

func (a *RedisAllocator) Release(ctx context.Context, code string) error {
    if strings.TrimSpace(code) == "" { return nil }
    if err := a.rdb.Del(ctx, a.key(code)).Err(); err != nil {
        return fmt.Errorf("release room code: %w", err)
    }
    return nil
}

// Touch extends the reservation of a long-running room.
func (a *RedisAllocator) Touch(ctx context.Context, code string) error {
    return a.rdb.Expire(ctx, a.key(code), a.ttl).Err()
}
