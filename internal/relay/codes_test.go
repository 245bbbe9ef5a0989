package relay

import (
    "bytes"
    "context"
    "regexp"
    "strings"
    "testing"
    "time"

    miniredis "github.com/alicebob/miniredis/v2"
    "github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
    t.Helper()
    mr, err := miniredis.Run()
    if err != nil { t.Fatalf("miniredis: %v", err) }
    t.Cleanup(mr.Close)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })
    return mr, rdb
}

func TestAlnumCodeShape(t *testing.T) {
    re := regexp.MustCompile(`^[A-Z0-9]{6}$`)
    for i := 0; i < 50; i++ {
        c, err := AlnumCode()
        if err != nil { t.Fatalf("AlnumCode: %v", err) }
        if !re.MatchString(c) { t.Fatalf("bad code %q", c) }
    }
}

func TestAlnumCodeRejectsBiasedBytes(t *testing.T) {
    // 252..255 would wrap onto A-D; they must be skipped
    src := bytes.NewReader([]byte{255, 1, 2, 252, 3, 4, 5, 6, 253, 254, 7, 8, 9, 10, 11, 12})
    c, err := alnumFrom(src)
    if err != nil { t.Fatalf("alnumFrom: %v", err) }
    if c != "BCDEFG" { t.Fatalf("code = %q, want BCDEFG", c) }

    if _, err := alnumFrom(bytes.NewReader([]byte{252, 253, 254, 255})); err == nil {
        t.Fatalf("expected error from a short reader")
    }
}

func TestGeneratorFor(t *testing.T) {
    gen, err := GeneratorFor("petname")
    if err != nil { t.Fatalf("GeneratorFor: %v", err) }
    c, _ := gen()
    if len(strings.Split(c, "-")) != 2 { t.Fatalf("petname code %q", c) }
    if _, err := GeneratorFor("emoji"); err == nil { t.Fatalf("expected error for unknown style") }
}

func TestMemoryAllocatorRetriesCollisions(t *testing.T) {
    seq := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
    gen := func() (string, error) {
        c := seq[0]
        seq = seq[1:]
        return c, nil
    }
    a := NewMemoryAllocator(gen)
    ctx := context.Background()
    c1, err := a.Reserve(ctx)
    if err != nil || c1 != "AAAAAA" { t.Fatalf("first = %q, %v", c1, err) }
    c2, err := a.Reserve(ctx)
    if err != nil || c2 != "BBBBBB" { t.Fatalf("second = %q, %v", c2, err) }

    fixed := NewMemoryAllocator(func() (string, error) { return "SAME", nil })
    if _, err := fixed.Reserve(ctx); err != nil { t.Fatalf("Reserve: %v", err) }
    if _, err := fixed.Reserve(ctx); err != ErrCodeExhausted { t.Fatalf("expected ErrCodeExhausted, got %v", err) }
    _ = fixed.Release(ctx, "SAME")
    if _, err := fixed.Reserve(ctx); err != nil { t.Fatalf("Reserve after release: %v", err) }
}

func TestRedisAllocatorReserveRelease(t *testing.T) {
    mr, rdb := newTestRedis(t)
    ctx := context.Background()
    a := NewRedisAllocator(rdb, func() (string, error) { return "ROOM01", nil }, time.Hour)

    code, err := a.Reserve(ctx)
    if err != nil { t.Fatalf("Reserve: %v", err) }
    if !mr.Exists("relay:room:ROOM01") { t.Fatalf("expected key to be set") }
    if ttl := mr.TTL("relay:room:ROOM01"); ttl != time.Hour { t.Fatalf("ttl = %v", ttl) }

    // a second relay process sharing the server cannot take the same code
    other := NewRedisAllocator(rdb, func() (string, error) { return "ROOM01", nil }, time.Hour)
    if _, err := other.Reserve(ctx); err != ErrCodeExhausted { t.Fatalf("expected ErrCodeExhausted, got %v", err) }

    mr.FastForward(30 * time.Minute)
    if err := a.Touch(ctx, code); err != nil { t.Fatalf("Touch: %v", err) }
    if ttl := mr.TTL("relay:room:ROOM01"); ttl != time.Hour { t.Fatalf("ttl after touch = %v", ttl) }

    if err := a.Release(ctx, code); err != nil { t.Fatalf("Release: %v", err) }
    if mr.Exists("relay:room:ROOM01") { t.Fatalf("expected key to be deleted") }
    if _, err := other.Reserve(ctx); err != nil { t.Fatalf("Reserve after release: %v", err) }
}

func TestRedisAllocatorBacksRegistry(t *testing.T) {
    mr, rdb := newTestRedis(t)
    ctx := context.Background()
    reg := NewRegistry(Options{Codes: NewRedisAllocator(rdb, nil, 0)})

    code, err := reg.CreateRoom(ctx, "A")
    if err != nil { t.Fatalf("CreateRoom: %v", err) }
    if !mr.Exists("relay:room:" + code) { t.Fatalf("code %s not reserved in redis", code) }
    reg.Disconnect(ctx, "A")
    if mr.Exists("relay:room:" + code) { t.Fatalf("code %s not released", code) }
}

func TestRedisAllocatorSurfacesErrors(t *testing.T) {
    mr, err := miniredis.Run()
    if err != nil { t.Fatalf("miniredis: %v", err) }
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
    defer rdb.Close()
    mr.Close()
    a := NewRedisAllocator(rdb, nil, time.Minute)
    if _, err := a.Reserve(context.Background()); err == nil || err == ErrCodeExhausted {
        t.Fatalf("expected transport error, got %v", err)
    }
}
