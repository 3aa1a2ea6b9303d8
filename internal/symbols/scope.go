// Package symbols holds the per-function variable environment and the
// compilation-wide extern and function tables.
package symbols

import (
	"fmt"
	"strings"
)

// Variable is one stack slot: the surface name, the IR register holding the
// slot address, and the IR type of the value stored in it. Under the
// stack-allocation convention every slot is a pointer.
type Variable struct {
	Name      string
	Reg       string
	IR        string
	IsPointer bool
}

// Table is the scope stack plus the unique-name supply for one function at
// a time. Reset re-arms it on function entry.
type Table struct {
	scopes []map[string]*Variable
	used   map[string]int
	temp   int
	label  int
}

func NewTable() *Table {
	t := &Table{}
	t.Reset()
	return t
}

// Reset drops every scope and zeroes both counters: one fresh empty scope
// remains. Called on function entry.
func (t *Table) Reset() {
	t.scopes = []map[string]*Variable{make(map[string]*Variable)}
	t.used = make(map[string]int)
	t.temp = 0
	t.label = 0
}

// Push opens a block scope.
func (t *Table) Push() {
	t.scopes = append(t.scopes, make(map[string]*Variable))
}

// Pop closes the innermost scope. The function scope itself is never
// popped.
func (t *Table) Pop() {
	if len(t.scopes) <= 1 {
		return
	}
	t.scopes = t.scopes[:len(t.scopes)-1]
}

// Declare binds a name in the innermost scope, shadowing any outer binding
// for the scope's lifetime. The register is %name, with a numeric suffix
// when shadowing would otherwise reuse a register within the function.
func (t *Table) Declare(name, ir string) *Variable {
	reg := "%" + name
	if n := t.used[name]; n > 0 {
		reg = fmt.Sprintf("%%%s.%d", name, n)
	}
	t.used[name]++
	v := &Variable{
		Name:      name,
		Reg:       reg,
		IR:        ir,
		IsPointer: true,
	}
	t.scopes[len(t.scopes)-1][name] = v
	return v
}

// Lookup searches scopes innermost outward.
func (t *Table) Lookup(name string) (*Variable, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if v, ok := t.scopes[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

// NextTemp returns the next unique temporary register: %t0, %t1, ...
func (t *Table) NextTemp() string {
	reg := fmt.Sprintf("%%t%d", t.temp)
	t.temp++
	return reg
}

// NextLabelID returns the next label suffix. One id covers a whole control
// construct, so if.then4 / if.else4 / if.end4 share the suffix.
func (t *Table) NextLabelID() int {
	id := t.label
	t.label++
	return id
}

// SlotName strips the register sigil, for diagnostics.
func (v *Variable) SlotName() string {
	return strings.TrimPrefix(v.Reg, "%")
}
