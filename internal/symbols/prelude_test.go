package symbols

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kdetry/MicroTS/internal/types"
)

func TestLoadEmbeddedPrelude(t *testing.T) {
	externs := NewExternTable()
	loaded, err := LoadPrelude("", types.NewMapper(nil), externs)
	if err != nil {
		t.Fatalf("LoadPrelude failed: %v", err)
	}
	if len(loaded) == 0 {
		t.Fatalf("embedded prelude is empty")
	}

	printf, ok := externs.Lookup("printf")
	if !ok {
		t.Fatalf("printf missing from prelude")
	}
	if !printf.Variadic || printf.Ret != "i32" {
		t.Fatalf("printf signature = %+v", printf)
	}
	if len(printf.Params) != 1 || printf.Params[0].IR != "i8*" {
		t.Fatalf("printf params = %+v, want one i8*", printf.Params)
	}

	malloc, ok := externs.Lookup("malloc")
	if !ok {
		t.Fatalf("malloc missing from prelude")
	}
	if malloc.Ret != "i8*" {
		t.Fatalf("malloc returns %q, want i8*", malloc.Ret)
	}

	free, ok := externs.Lookup("free")
	if !ok {
		t.Fatalf("free missing from prelude")
	}
	if free.Ret != "void" {
		t.Fatalf("free returns %q, want void", free.Ret)
	}
}

func TestLoadCustomPrelude(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prelude.toml")
	descriptor := `
[[extern]]
name = "getchar"
returns = "number"
`
	if err := os.WriteFile(path, []byte(descriptor), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	externs := NewExternTable()
	if _, err := LoadPrelude(path, types.NewMapper(nil), externs); err != nil {
		t.Fatalf("LoadPrelude failed: %v", err)
	}
	getchar, ok := externs.Lookup("getchar")
	if !ok || getchar.Ret != "i32" || len(getchar.Params) != 0 {
		t.Fatalf("getchar = %+v/%v", getchar, ok)
	}
	if _, ok := externs.Lookup("printf"); ok {
		t.Fatalf("custom prelude unexpectedly pulled in the embedded externs")
	}
}
