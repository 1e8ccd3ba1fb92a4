package sitecmd

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-blog/internal/generator"
	"github.com/goliatone/go-blog/internal/posts"
)

func TestBuildSiteHandler_Execute_Build(t *testing.T) {
	cmd := loadBuildFixture(t, "build_basic.json")

	var capturedOpts generator.BuildOptions
	callbackInvoked := false

	svc := &fakeGeneratorService{
		buildFunc: func(ctx context.Context, opts generator.BuildOptions) (*generator.BuildResult, error) {
			capturedOpts = opts
			return &generator.BuildResult{PagesBuilt: 3}, nil
		},
	}

	handler := NewBuildSiteHandler(svc, nil, FeatureGates{GeneratorEnabled: alwaysTrue})

	cmd.ResultCallback = func(env ResultEnvelope) {
		callbackInvoked = true
		if env.Result == nil {
			t.Fatalf("expected build result, got nil")
		}
		if env.Result.PagesBuilt != 3 {
			t.Fatalf("expected PagesBuilt 3, got %d", env.Result.PagesBuilt)
		}
		if env.Metadata["operation"] != "build" {
			t.Fatalf("expected operation build, got %v", env.Metadata["operation"])
		}
	}

	if err := handler.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("execute build: %v", err)
	}

	if capturedOpts.DryRun {
		t.Fatalf("expected DryRun false")
	}
	if len(capturedOpts.Slugs) != 2 {
		t.Fatalf("expected 2 slugs, got %d", len(capturedOpts.Slugs))
	}
	if capturedOpts.Slugs[0] != "hello-world" {
		t.Fatalf("expected trimmed slug hello-world, got %q", capturedOpts.Slugs[0])
	}
	if !callbackInvoked {
		t.Fatal("expected callback to be invoked")
	}
}

func TestBuildSiteHandler_Execute_DryRun(t *testing.T) {
	var capturedOpts generator.BuildOptions
	svc := &fakeGeneratorService{
		buildFunc: func(ctx context.Context, opts generator.BuildOptions) (*generator.BuildResult, error) {
			capturedOpts = opts
			return &generator.BuildResult{DryRun: true}, nil
		},
	}

	handler := NewBuildSiteHandler(svc, nil, FeatureGates{GeneratorEnabled: alwaysTrue})
	if err := handler.Execute(context.Background(), BuildSiteCommand{DryRun: true}); err != nil {
		t.Fatalf("execute dry run: %v", err)
	}
	if !capturedOpts.DryRun {
		t.Fatal("expected DryRun to propagate")
	}
	if capturedOpts.Slugs != nil {
		t.Fatalf("expected nil slug filter, got %v", capturedOpts.Slugs)
	}
}

func TestBuildSiteHandler_Execute_GeneratorDisabled(t *testing.T) {
	cmd := BuildSiteCommand{}
	svc := &fakeGeneratorService{}

	handler := NewBuildSiteHandler(svc, nil, FeatureGates{GeneratorEnabled: alwaysFalse})
	err := handler.Execute(context.Background(), cmd)
	if !errors.Is(err, generator.ErrServiceDisabled) {
		t.Fatalf("expected ErrServiceDisabled, got %v", err)
	}
}

func TestCleanSiteHandler_Execute(t *testing.T) {
	cleanCalled := false
	svc := &fakeGeneratorService{
		cleanFunc: func(ctx context.Context) error {
			cleanCalled = true
			return nil
		},
	}

	handler := NewCleanSiteHandler(svc, nil, FeatureGates{GeneratorEnabled: alwaysTrue})
	if err := handler.Execute(context.Background(), CleanSiteCommand{}); err != nil {
		t.Fatalf("execute clean: %v", err)
	}
	if !cleanCalled {
		t.Fatal("expected Clean to be called")
	}
}

func TestCleanSiteHandler_Execute_GeneratorDisabled(t *testing.T) {
	handler := NewCleanSiteHandler(&fakeGeneratorService{}, nil, FeatureGates{GeneratorEnabled: alwaysFalse})
	err := handler.Execute(context.Background(), CleanSiteCommand{})
	if !errors.Is(err, generator.ErrServiceDisabled) {
		t.Fatalf("expected ErrServiceDisabled, got %v", err)
	}
}

func TestReloadContentHandler_Execute(t *testing.T) {
	index, err := posts.New(posts.Config{ContentDir: filepath.Join("testdata", "content")})
	if err != nil {
		t.Fatalf("new index: %v", err)
	}

	handler := NewReloadContentHandler(index, nil)
	if err := handler.Execute(context.Background(), ReloadContentCommand{}); err != nil {
		t.Fatalf("execute reload: %v", err)
	}
	if !index.Loaded() {
		t.Fatal("expected index to be loaded after reload")
	}
	if index.Len() != 1 {
		t.Fatalf("expected 1 post, got %d", index.Len())
	}
}

func TestReloadContentHandler_Execute_MissingIndex(t *testing.T) {
	handler := NewReloadContentHandler(nil, nil)
	err := handler.Execute(context.Background(), ReloadContentCommand{})
	if err == nil {
		t.Fatal("expected error for missing index")
	}
	if !errors.Is(err, posts.ErrIndexRequired) {
		t.Fatalf("expected ErrIndexRequired, got %v", err)
	}
}

func TestBuildSiteCommandValidate(t *testing.T) {
	cmd := loadBuildFixture(t, "build_invalid_slug.json")
	if err := cmd.Validate(); err == nil {
		t.Fatal("expected validation error for blank slugs")
	}
}

func loadBuildFixture(t *testing.T, name string) BuildSiteCommand {
	t.Helper()
	var cmd BuildSiteCommand
	loadFixture(t, name, &cmd)
	return cmd
}

func loadFixture(t *testing.T, name string, target any) {
	t.Helper()
	path := filepath.Join("testdata", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("unmarshal fixture %s: %v", name, err)
	}
}

type fakeGeneratorService struct {
	buildFunc func(context.Context, generator.BuildOptions) (*generator.BuildResult, error)
	cleanFunc func(context.Context) error
}

func (f *fakeGeneratorService) Build(ctx context.Context, opts generator.BuildOptions) (*generator.BuildResult, error) {
	if f.buildFunc != nil {
		return f.buildFunc(ctx, opts)
	}
	return nil, nil
}

func (f *fakeGeneratorService) Clean(ctx context.Context) error {
	if f.cleanFunc != nil {
		return f.cleanFunc(ctx)
	}
	return nil
}

func alwaysTrue() bool  { return true }
func alwaysFalse() bool { return false }
