package diag

import (
	"fmt"

	"github.com/kdetry/MicroTS/internal/source"
)

// Diagnostic is one reported condition. It implements error so pipeline
// stages can return it directly; the first error aborts the compilation.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Pos      source.Pos
}

func (d *Diagnostic) Error() string {
	if d.Pos.Valid() {
		return fmt.Sprintf("%s: %s: %s", d.Pos, d.Code, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Code, d.Message)
}

// Errorf builds an error-severity diagnostic at pos.
func Errorf(code Code, pos source.Pos, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Severity: SevError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Pos:      pos,
	}
}
