// Package component keeps the process-wide catalog of controller instances.
//
// Go cannot enumerate the types of a package at runtime, so controller
// packages announce their instances from init():
//
//	func init() {
//	    component.MustRegister(&UserController{users: repository.Users()})
//	}
//
// The catalog records the import path of each instance's type. A scanning
// mapping later asks for the instances living under a set of package
// patterns, which is the same question a classpath scanner answers.
package component

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrDuplicate indicates a second instance of an already registered type.
	ErrDuplicate = errors.New("component: duplicate registration")
	// ErrInvalid indicates an instance that is not a pointer to a named struct.
	ErrInvalid = errors.New("component: invalid component")
)

// Entry is one registered component.
type Entry struct {
	Package  string
	Type     reflect.Type
	Instance any
}

// Catalog holds registered components. It is safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	entries map[reflect.Type]Entry
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[reflect.Type]Entry)}
}

// Default is the catalog controller packages register into.
var Default = NewCatalog()

// Register adds instance to the catalog. instance must be a non-nil pointer
// to a named struct type declared in some package.
func (c *Catalog) Register(instance any) error {
	if instance == nil {
		return fmt.Errorf("%w: nil instance", ErrInvalid)
	}
	t := reflect.TypeOf(instance)
	v := reflect.ValueOf(instance)
	if t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct || v.IsNil() {
		return fmt.Errorf("%w: %s is not a non-nil struct pointer", ErrInvalid, t)
	}
	pkg := t.Elem().PkgPath()
	if pkg == "" || t.Elem().Name() == "" {
		return fmt.Errorf("%w: %s is not a named package type", ErrInvalid, t)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[t]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicate, t)
	}
	c.entries[t] = Entry{Package: pkg, Type: t, Instance: instance}
	return nil
}

// MustRegister registers instance in the Default catalog and panics on error.
// Intended for init() blocks.
func MustRegister(instance any) {
	if err := Default.Register(instance); err != nil {
		panic(err)
	}
}

// Scan returns the components whose package matches any of patterns, sorted
// by package path and type name so scans are deterministic.
//
// A pattern is either an exact import path or an import path followed by
// "/..." which also matches every package below it. The pattern "..."
// matches everything.
func (c *Catalog) Scan(patterns ...string) []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	found := make([]Entry, 0)
	for _, e := range c.entries {
		for _, p := range patterns {
			if Matches(p, e.Package) {
				found = append(found, e)
				break
			}
		}
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].Package != found[j].Package {
			return found[i].Package < found[j].Package
		}
		return found[i].Type.String() < found[j].Type.String()
	})
	return found
}

// Len returns the number of registered components.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Matches reports whether pkg falls under pattern.
func Matches(pattern, pkg string) bool {
	pattern = strings.TrimSpace(pattern)
	switch {
	case pattern == "":
		return false
	case pattern == "...":
		return true
	case strings.HasSuffix(pattern, "/..."):
		base := strings.TrimSuffix(pattern, "/...")
		return pkg == base || strings.HasPrefix(pkg, base+"/")
	default:
		return pkg == pattern
	}
}
