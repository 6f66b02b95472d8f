package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mark3labs/discovery2go/internal/discovery"
	"github.com/mark3labs/discovery2go/internal/fixtures"
	"github.com/mark3labs/discovery2go/internal/ir"
)

func TestPrintPlan_SurfaceTree(t *testing.T) {
	t.Parallel()
	doc, err := discovery.Parse(fixtures.ArvadosV1())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	api, err := ir.Build(discovery.Filter(doc, discovery.ArvadosV1Exclusions()))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	var buf bytes.Buffer
	printPlan(&buf, api, []string{"client.go (10 bytes, package arvados)"})
	out := buf.String()

	for _, want := range []string{
		"Planned writes (1 files):",
		"- client.go (10 bytes, package arvados)",
		"arvados v1",
		"Collections() CollectionsResource",
		"Get GET collections/{uuid}",
		"Current GET users/current",
		"6 schemas",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("plan output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Jobs()") {
		t.Errorf("excluded resource listed:\n%s", out)
	}
}

func TestRoot_Version(t *testing.T) {
	t.Parallel()
	stdout, _, err := runCLI(t, "--version")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.HasPrefix(stdout, "discovery2go version ") {
		t.Fatalf("unexpected version output: %q", stdout)
	}
}
