package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/johndauphine/drizzle-project/internal/dbconfig"
	"github.com/johndauphine/drizzle-project/internal/placeholder"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "package.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

var tsMap = placeholder.NewMap("./lib/db", "./drizzle", "tsx ./migrate.ts")

func TestMergeScriptsKeepsExistingScripts(t *testing.T) {
	path := writeManifest(t, `{
  "name": "app",
  "version": "1.0.0",
  "scripts": {
    "test": "vitest"
  },
  "dependencies": {}
}
`)

	updated, err := MergeScripts(path, dbconfig.SQLite, tsMap)
	if err != nil {
		t.Fatalf("MergeScripts() error: %v", err)
	}
	if !updated {
		t.Fatal("MergeScripts() reported no update")
	}

	want := `{
  "name": "app",
  "version": "1.0.0",
  "scripts": {
    "test": "vitest",
    "db:generate": "npx drizzle-kit generate:sqlite",
    "db:push": "npx drizzle-kit push:sqlite",
    "db:migrate": "tsx ./migrate.ts"
  },
  "dependencies": {}
}
`
	if got := readFile(t, path); got != want {
		t.Errorf("package.json =\n%s\nwant:\n%s", got, want)
	}
}

func TestMergeScriptsOverwritesManagedKeys(t *testing.T) {
	path := writeManifest(t, `{"scripts":{"db:push":"old","lint":"eslint ."}}`)

	if _, err := MergeScripts(path, dbconfig.PostgreSQL, tsMap); err != nil {
		t.Fatal(err)
	}

	got := readFile(t, path)
	want := `{
  "scripts": {
    "db:push": "npx drizzle-kit push:pg",
    "lint": "eslint .",
    "db:generate": "npx drizzle-kit generate:pg",
    "db:migrate": "tsx ./migrate.ts"
  }
}`
	if got != want {
		t.Errorf("package.json =\n%s\nwant:\n%s", got, want)
	}
}

func TestMergeScriptsCreatesScripts(t *testing.T) {
	path := writeManifest(t, "{\n\t\"name\": \"app\"\n}\n")

	if _, err := MergeScripts(path, dbconfig.MySQL, placeholder.NewMap("./lib/db", "./drizzle", "node ./migrate.js")); err != nil {
		t.Fatal(err)
	}

	want := "{\n\t\"name\": \"app\",\n\t\"scripts\": {\n" +
		"\t\t\"db:generate\": \"npx drizzle-kit generate:mysql\",\n" +
		"\t\t\"db:push\": \"npx drizzle-kit push:mysql\",\n" +
		"\t\t\"db:migrate\": \"node ./migrate.js\"\n\t}\n}\n"
	if got := readFile(t, path); got != want {
		t.Errorf("package.json =\n%q\nwant:\n%q", got, want)
	}
}

func TestMergeScriptsNoHTMLEscaping(t *testing.T) {
	path := writeManifest(t, `{
    "scripts": {
        "build": "tsc && node dist/<main>.js"
    }
}
`)

	m := placeholder.NewMap("./lib/db", "./drizzle", "tsx ./scripts/migrate.ts && echo done")
	if _, err := MergeScripts(path, dbconfig.SQLite, m); err != nil {
		t.Fatal(err)
	}

	got := readFile(t, path)
	if strings.Contains(got, `\u0026`) || strings.Contains(got, `\u003c`) {
		t.Errorf("HTML characters were escaped:\n%s", got)
	}
	if !strings.Contains(got, `"db:migrate": "tsx ./scripts/migrate.ts && echo done"`) {
		t.Errorf("migrate script missing:\n%s", got)
	}
	if !strings.Contains(got, "\n        \"build\"") {
		t.Errorf("four space indentation not kept:\n%s", got)
	}
}

func TestMergeScriptsMissingManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "package.json")
	updated, err := MergeScripts(path, dbconfig.SQLite, tsMap)
	if err != nil {
		t.Fatalf("MergeScripts() error: %v", err)
	}
	if updated {
		t.Error("MergeScripts() should report no update")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("package.json should not be created")
	}
}

func TestMergeScriptsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", `{"name": `},
		{"array", `[1, 2]`},
		{"scripts not an object", `{"scripts": ["a"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, tt.content)
			if _, err := MergeScripts(path, dbconfig.SQLite, tsMap); err == nil {
				t.Error("MergeScripts() expected error")
			}
			if got := readFile(t, path); got != tt.content {
				t.Errorf("invalid manifest was modified: %s", got)
			}
		})
	}
}

func TestMergeScriptsNullScripts(t *testing.T) {
	path := writeManifest(t, `{"scripts": null}`)
	if _, err := MergeScripts(path, dbconfig.SQLite, tsMap); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(readFile(t, path), `"db:generate"`) {
		t.Error("scripts not written over null")
	}
}

func TestMergeScriptsIsIdempotent(t *testing.T) {
	path := writeManifest(t, `{
  "name": "app",
  "scripts": {
    "dev": "next dev"
  }
}
`)
	if _, err := MergeScripts(path, dbconfig.SQLite, tsMap); err != nil {
		t.Fatal(err)
	}
	first := readFile(t, path)
	if _, err := MergeScripts(path, dbconfig.SQLite, tsMap); err != nil {
		t.Fatal(err)
	}
	if second := readFile(t, path); second != first {
		t.Errorf("second merge changed the file:\n%s\nvs\n%s", second, first)
	}
}

func TestMergeScriptsDuplicateScriptsKey(t *testing.T) {
	path := writeManifest(t, `{"scripts": {"old": "x"}, "name": "app", "scripts": {"dev": "next dev"}}`)
	if _, err := MergeScripts(path, dbconfig.MySQL, tsMap); err != nil {
		t.Fatal(err)
	}

	// JSON readers keep the last "scripts", so the merge must land there.
	out := readFile(t, path)
	gen := strings.Index(out, `"`+GenerateScript+`"`)
	if gen < 0 || gen < strings.Index(out, `"dev"`) {
		t.Errorf("scripts merged into the shadowed key:\n%s", out)
	}
	if !strings.Contains(out, "\"old\": \"x\"\n  }") {
		t.Errorf("first scripts object changed:\n%s", out)
	}
}

func TestObjectGetAndSetUseSameDuplicate(t *testing.T) {
	doc, err := Parse([]byte(`{"k":1,"k":2}`))
	if err != nil {
		t.Fatal(err)
	}
	doc.Root.Set("k", json.RawMessage("3"))
	if v, _ := doc.Root.Get("k"); string(v) != "3" {
		t.Errorf("Get() after Set() = %s, want 3", v)
	}
	out, _ := doc.Root.MarshalJSON()
	if string(out) != `{"k":1,"k":3}` {
		t.Errorf("MarshalJSON() = %s", out)
	}
}

func TestObjectPreservesOrderAndValues(t *testing.T) {
	doc, err := Parse([]byte(`{"z":1,"a":{"nested":[1,2,{"k":"v"}]},"m":"<b>"}`))
	if err != nil {
		t.Fatal(err)
	}
	keys := doc.Root.Keys()
	if strings.Join(keys, ",") != "z,a,m" {
		t.Errorf("Keys() = %v", keys)
	}
	out, err := doc.Root.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	want := `{"z":1,"a":{"nested":[1,2,{"k":"v"}]},"m":"<b>"}`
	if string(out) != want {
		t.Errorf("MarshalJSON() = %s, want %s", out, want)
	}
}

func TestDetectIndent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"{\n  \"a\": 1\n}", "  "},
		{"{\n    \"a\": 1\n}", "    "},
		{"{\n\t\"a\": 1\n}", "\t"},
		{"{\r\n   \"a\": 1\r\n}", "   "},
		{`{"a":1}`, "  "},
		{"{\n\n}", "  "},
	}
	for _, tt := range tests {
		if got := detectIndent([]byte(tt.in)); got != tt.want {
			t.Errorf("detectIndent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
