package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSource(t *testing.T, root string, rel string, body string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestCollectViolationsFlagsLayerLeaks(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "contexts/polls/voting/domain/entities/vote.go", `package entities

import _ "pollster/internal/platform/db"
`)
	writeSource(t, root, "contexts/polls/voting/application/commands/submit.go", `package commands

import (
	_ "pollster/contexts/polls/voting/adapters/memory"
	_ "pollster/contexts/polls/voting/ports"
	_ "pollster/contracts/gen/events/v1"
)
`)
	writeSource(t, root, "contexts/polls/voting/ports/ports.go", `package ports

import (
	_ "context"
	_ "github.com/google/uuid"
	_ "pollster/contracts/gen/events/v1"
)
`)
	writeSource(t, root, "contexts/polls/voting/transport/http/dto.go", `package http

import _ "pollster/contracts/gen/events/v1"
`)
	writeSource(t, root, "contexts/polls/voting/adapters/memory/store.go", `package memory

import (
	_ "github.com/google/uuid"
	_ "pollster/contexts/polls/voting/ports"
	_ "pollster/contexts/polls/other/domain"
)
`)
	writeSource(t, root, "contexts/polls/voting/module.go", `package voting

import _ "pollster/contexts/polls/voting/adapters/memory"
`)

	wd, _ := os.Getwd()
	if err := os.Chdir(root); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer func() { _ = os.Chdir(wd) }()

	got := map[string]string{}
	for _, v := range collectViolations("pollster", "contexts") {
		got[v.File+" "+v.Import] = v.Rule
	}
	want := map[string]string{
		"contexts/polls/voting/domain/entities/vote.go pollster/internal/platform/db":                         "services must not import process wiring",
		"contexts/polls/voting/application/commands/submit.go pollster/contexts/polls/voting/adapters/memory": "application import is outside its layer rule",
		"contexts/polls/voting/ports/ports.go github.com/google/uuid":                                         "ports import is outside its layer rule",
		"contexts/polls/voting/transport/http/dto.go pollster/contracts/gen/events/v1":                        "transport import is outside its layer rule",
		"contexts/polls/voting/adapters/memory/store.go pollster/contexts/polls/other/domain":                 "imports another service",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d violations, got %d: %v", len(want), len(got), got)
	}
	for key, rule := range want {
		if got[key] != rule {
			t.Fatalf("expected %q for %s, got %q", rule, key, got[key])
		}
	}
}

func TestLayerRuleAllows(t *testing.T) {
	service := "pollster/contexts/polls/voting"
	if !layerRules["ports"].allows("pollster/contracts/gen/events/v1", "pollster", service) {
		t.Fatal("ports should reach contracts")
	}
	if layerRules["domain"].allows("pollster/contracts/gen/events/v1", "pollster", service) {
		t.Fatal("domain should not reach contracts")
	}
	if !layerRules["adapters"].allows("gorm.io/gorm", "pollster", service) {
		t.Fatal("adapters should reach third-party libraries")
	}
	if !layerRules["domain"].allows("strings", "pollster", service) {
		t.Fatal("every layer may use the standard library")
	}
}

func TestModulePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "go.mod")
	if err := os.WriteFile(path, []byte("module pollster\n\ngo 1.24\n"), 0o644); err != nil {
		t.Fatalf("write go.mod: %v", err)
	}
	got, err := modulePath(path)
	if err != nil || got != "pollster" {
		t.Fatalf("expected pollster, got %q err=%v", got, err)
	}
}
