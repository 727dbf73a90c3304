package export

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/forma-dev/forma/pkg/canvas"
	"github.com/forma-dev/forma/pkg/catalog"
	"github.com/forma-dev/forma/pkg/datasource"
)

func buildTree(t *testing.T) *canvas.Store {
	t.Helper()
	store := canvas.NewStore(catalog.Default())
	if _, err := store.Create("button", canvas.Position{X: 10, Y: 20}, ""); err != nil {
		t.Fatal(err)
	}
	parent, err := store.Create("container", canvas.Position{X: 100, Y: 0}, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Create("text", canvas.Position{}, parent.ID); err != nil {
		t.Fatal(err)
	}
	return store
}

func TestStandaloneRoundTrip(t *testing.T) {
	store := buildTree(t)
	roots := store.Snapshot()

	doc, err := Standalone(context.Background(), roots, Options{ProjectName: "demo"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	project, err := DecodeProject(doc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if project.Name != "demo" {
		t.Errorf("name = %q", project.Name)
	}
	if len(project.Instances) != len(roots) {
		t.Fatalf("roots = %d, want %d", len(project.Instances), len(roots))
	}

	// Identity and structure survive the round trip.
	var want, got []string
	for _, r := range roots {
		r.Walk(func(i *canvas.Instance) { want = append(want, i.ID+"/"+i.Kind) })
	}
	for _, r := range project.Instances {
		r.Walk(func(i *canvas.Instance) { got = append(got, i.ID+"/"+i.Kind) })
	}
	if len(got) != len(want) {
		t.Fatalf("instances = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("instance %d = %q, want %q", i, got[i], want[i])
		}
	}

	if project.Instances[0].Props["text"] != "Button" {
		t.Errorf("props lost in round trip: %v", project.Instances[0].Props)
	}
}

func TestStandaloneIsSelfContained(t *testing.T) {
	store := buildTree(t)

	doc, err := Standalone(context.Background(), store.Snapshot(), Options{ProjectName: "demo"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	html := string(doc)

	for _, want := range []string{
		"<!DOCTYPE html>",
		`<div id="forma-root">`,
		"Forma.mount();",
		"evaluateRule", // embedded rule engine
		"RENDERERS",    // embedded dispatcher
		"forma-button", // embedded stylesheet
	} {
		if !strings.Contains(html, want) {
			t.Errorf("document missing %q", want)
		}
	}
}

func TestSnapshotResolvesRemoteSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":1,"name":"ada"}]`)
	}))
	defer srv.Close()

	store := canvas.NewStore(catalog.Default())
	inst, _ := store.Create("table", canvas.Position{}, "")
	store.UpdateProp(inst.ID, "props.dataSource", map[string]any{"type": "url", "url": srv.URL})

	doc, err := Standalone(context.Background(), store.Snapshot(), Options{
		ProjectName: "demo",
		Mode:        ModeSnapshot,
		Resolver:    datasource.NewClient(nil),
	})
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	project, err := DecodeProject(doc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	ds, ok := project.Instances[0].Props["dataSource"].(map[string]any)
	if !ok {
		t.Fatalf("dataSource shape: %v", project.Instances[0].Props["dataSource"])
	}
	if ds["type"] != "static" {
		t.Errorf("snapshot should rewrite to static, got %v", ds["type"])
	}
	rows, _ := ds["static"].([]any)
	if len(rows) != 1 {
		t.Fatalf("embedded rows = %v", ds["static"])
	}
	if _, ok := ds["url"]; ok {
		t.Error("snapshot must drop the url, no reference back to live sources")
	}

	// The source tree is untouched.
	orig, _ := store.Find(inst.ID)
	if src, _ := orig.Props["dataSource"].(map[string]any); src["type"] != "url" {
		t.Errorf("export must not mutate the live tree: %v", orig.Props["dataSource"])
	}
}

func TestSnapshotWithoutResolverFails(t *testing.T) {
	store := canvas.NewStore(catalog.Default())
	inst, _ := store.Create("table", canvas.Position{}, "")
	store.UpdateProp(inst.ID, "props.dataSource", map[string]any{"type": "query", "queryId": "q1"})

	_, err := Standalone(context.Background(), store.Snapshot(), Options{Mode: ModeSnapshot})
	if err == nil {
		t.Fatal("remote source without a resolver should fail the export")
	}
}

func TestLiveModeKeepsSourceConfig(t *testing.T) {
	store := canvas.NewStore(catalog.Default())
	inst, _ := store.Create("table", canvas.Position{}, "")
	store.UpdateProp(inst.ID, "props.dataSource", map[string]any{"type": "query", "queryId": "q1"})

	doc, err := Standalone(context.Background(), store.Snapshot(), Options{
		ProjectName: "demo",
		Mode:        ModeLive,
		Endpoint:    "https://data.example.com",
	})
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	project, err := DecodeProject(doc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if project.Mode != ModeLive {
		t.Errorf("mode = %q", project.Mode)
	}
	if project.Endpoint != "https://data.example.com" {
		t.Errorf("endpoint = %q", project.Endpoint)
	}
	ds, _ := project.Instances[0].Props["dataSource"].(map[string]any)
	if ds["type"] != "query" || ds["queryId"] != "q1" {
		t.Errorf("live export must keep the source config: %v", ds)
	}
}

func TestDecodeProjectRejectsPlainHTML(t *testing.T) {
	if _, err := DecodeProject([]byte("<html><body>nope</body></html>")); err == nil {
		t.Fatal("expected an error")
	}
}
