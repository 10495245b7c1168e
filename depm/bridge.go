package depm

import (
	"sync"

	"github.com/jdpage/jeff65/ast"
)

// ProvideAST is the capability a virtual unit provider exposes: given a unit
// name, it returns the synthesized top-level statement list that stands in
// for a parsed file.
type ProvideAST func(name string) ([]ast.Statement, error)

// virtualProviders is the registry mapping built-in unit names to their
// providers.
var virtualProviders = struct {
	sync.RWMutex
	m map[string]ProvideAST
}{m: make(map[string]ProvideAST)}

// RegisterVirtual registers a provider for the named built-in unit.  A later
// registration for the same name replaces the earlier one.
func RegisterVirtual(name string, provide ProvideAST) {
	virtualProviders.Lock()
	defer virtualProviders.Unlock()

	virtualProviders.m[name] = provide
}

// LookupVirtual returns the registered provider for the named unit.
func LookupVirtual(name string) (ProvideAST, bool) {
	virtualProviders.RLock()
	defer virtualProviders.RUnlock()

	provide, ok := virtualProviders.m[name]
	return provide, ok
}
