package di_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-blog/internal/di"
	"github.com/goliatone/go-blog/internal/generator"
	"github.com/goliatone/go-blog/internal/runtimeconfig"
)

func TestNewContainer_DefaultsToDisabledGenerator(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Content.Dir = writeContentFixture(t)
	cfg.Generator.Enabled = false

	container, err := di.NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	svc := container.GeneratorService()
	if svc == nil {
		t.Fatal("expected generator service binding")
	}
	if _, err := svc.Build(context.Background(), generator.BuildOptions{}); !errors.Is(err, generator.ErrServiceDisabled) {
		t.Fatalf("expected ErrServiceDisabled, got %v", err)
	}
}

func TestNewContainer_RejectsInvalidConfig(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Content.Dir = ""

	if _, err := di.NewContainer(cfg); !errors.Is(err, runtimeconfig.ErrContentDirRequired) {
		t.Fatalf("expected ErrContentDirRequired, got %v", err)
	}
}

func TestNewContainer_WiresPostsIndex(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Content.Dir = writeContentFixture(t)
	cfg.Generator.Enabled = false

	container, err := di.NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	index := container.PostsIndex()
	if index == nil {
		t.Fatal("expected posts index binding")
	}
	if err := index.Load(context.Background()); err != nil {
		t.Fatalf("load posts: %v", err)
	}
	if index.Len() != 1 {
		t.Fatalf("expected 1 post, got %d", index.Len())
	}
}

func TestNewContainer_GeneratorUsesTemplatesDir(t *testing.T) {
	templates := t.TempDir()
	writeFile(t, filepath.Join(templates, "post.tmpl"), "<h1>{{.Post.Post.Title}}</h1>")
	writeFile(t, filepath.Join(templates, "index.tmpl"), "<ul></ul>")

	cfg := runtimeconfig.DefaultConfig()
	cfg.Content.Dir = writeContentFixture(t)
	cfg.Site.BaseURL = "https://example.com"
	cfg.Generator.Enabled = true
	cfg.Generator.OutputDir = filepath.Join(t.TempDir(), "public")
	cfg.Generator.TemplatesDir = templates

	container, err := di.NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	if container.Template() == nil {
		t.Fatal("expected template renderer binding")
	}
	if container.RouteManager() == nil {
		t.Fatal("expected route manager binding")
	}
	if !container.GeneratorEnabled() {
		t.Fatal("expected generator to be enabled")
	}

	result, err := container.GeneratorService().Build(context.Background(), generator.BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if result.PagesBuilt != 2 {
		t.Fatalf("expected 2 pages (post and listing), got %d", result.PagesBuilt)
	}
}

func writeContentFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "container-check.md"), `---
title: "Container Check"
excerpt: "Wiring fixture."
coverImage: "/assets/blog/container-check/cover.jpg"
date: "2024-03-14T08:00:00Z"
author:
  name: "Ada Park"
  picture: "/assets/blog/authors/ada.png"
ogImage:
  url: "/assets/blog/container-check/cover.jpg"
---

Container wiring smoke content.
`)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
