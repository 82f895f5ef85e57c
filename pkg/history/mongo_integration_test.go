//go:build integration

package history

import (
	"context"
	"os"
	"testing"

	"github.com/matzehuels/mvnfetch/pkg/errors"
)

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("MVNFETCH_MONGO_URI")
	if uri == "" {
		t.Skip("MVNFETCH_MONGO_URI not set")
	}
	ctx := context.Background()

	s, err := NewMongoStore(ctx, uri, "mvnfetch_test")
	if err != nil {
		t.Fatalf("NewMongoStore: %v", err)
	}
	t.Cleanup(func() {
		_ = s.runs.Drop(context.Background())
		_ = s.Close(context.Background())
	})

	run := NewRun([]string{"org.example:app:1.0"}, []string{"https://repo.maven.apache.org/maven2"}, nil, "nearest")
	run.Artifacts = []string{"org.example:app:1.0"}
	if err := s.Save(ctx, run); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Roots[0] != "org.example:app:1.0" || len(got.Artifacts) != 1 {
		t.Errorf("run = %+v", got)
	}

	runs, err := s.List(ctx, 10)
	if err != nil || len(runs) == 0 {
		t.Fatalf("List = %v, %v", runs, err)
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, errors.ErrCodeRunNotFound) {
		t.Errorf("err = %v, want RUN_NOT_FOUND", err)
	}
}
