//go:build integration

package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestRedisCache(t *testing.T) {
	url := os.Getenv("MVNFETCH_REDIS_URL")
	if url == "" {
		t.Skip("MVNFETCH_REDIS_URL not set")
	}

	ctx := context.Background()
	c, err := NewRedisCache(ctx, url, "mvnfetch-test:")
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()

	key := "pom:" + t.Name()
	defer c.Delete(ctx, key)

	if _, hit, err := c.Get(ctx, key); hit || err != nil {
		t.Fatalf("initial Get: hit=%v err=%v", hit, err)
	}
	if err := c.Set(ctx, key, []byte("<project/>"), time.Minute); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, key)
	if err != nil || !hit || string(data) != "<project/>" {
		t.Errorf("Get() = %q, %v, %v", data, hit, err)
	}
}
