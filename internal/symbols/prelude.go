package symbols

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/kdetry/MicroTS/internal/types"
)

//go:embed prelude.toml
var defaultPrelude []byte

type preludeFile struct {
	Extern []preludeExtern `toml:"extern"`
}

type preludeExtern struct {
	Name     string         `toml:"name"`
	Returns  string         `toml:"returns"`
	Params   []preludeParam `toml:"params"`
	Variadic bool           `toml:"variadic"`
}

type preludeParam struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

// LoadPrelude registers the standard-library extern descriptors into the
// table and returns them in declaration order. An empty path selects the
// embedded C-library subset; otherwise the TOML descriptor at path is used.
// Surface types in the descriptor go through the same mapper as user code.
func LoadPrelude(path string, mapper *types.Mapper, externs *ExternTable) ([]*Extern, error) {
	data := defaultPrelude
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read prelude %q: %w", path, err)
		}
	}
	var file preludeFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse prelude descriptor: %w", err)
	}
	out := make([]*Extern, 0, len(file.Extern))
	for _, decl := range file.Extern {
		if decl.Name == "" {
			return nil, fmt.Errorf("prelude extern with empty name")
		}
		ret := decl.Returns
		if ret == "" {
			ret = "void"
		}
		retIR, err := mapper.Map(ret)
		if err != nil {
			return nil, fmt.Errorf("prelude extern %q: %w", decl.Name, err)
		}
		ex := &Extern{
			Name:     decl.Name,
			Ret:      retIR,
			Variadic: decl.Variadic,
		}
		for _, p := range decl.Params {
			ir, err := mapper.Map(p.Type)
			if err != nil {
				return nil, fmt.Errorf("prelude extern %q param %q: %w", decl.Name, p.Name, err)
			}
			ex.Params = append(ex.Params, Param{Name: p.Name, IR: ir})
		}
		if err := externs.Declare(ex); err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, nil
}
