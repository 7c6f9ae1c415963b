package rules

import (
	"fmt"
	"slices"
	"sort"
	"sync"
)

// Registry manages rule registration and lookup.
//
// Registration order is significant: when several rules subscribe to the
// same syntax element, their callbacks fire in registration order. The
// analyzer freezes the registry before analysis begins; registering a rule
// after that panics.
type Registry struct {
	mu     sync.RWMutex
	frozen bool
	order  []Rule
	byCode map[string]Rule
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byCode: make(map[string]Rule),
	}
}

// Register adds a rule to the registry.
// Panics if the registry is frozen, the rule code is empty, or a rule with
// the same code is already registered.
func (r *Registry) Register(rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		panic("rules: Register called after registry was frozen")
	}
	code := rule.Descriptor().Code
	if code == "" {
		panic("rules: rule has empty code")
	}
	if _, exists := r.byCode[code]; exists {
		panic(fmt.Sprintf("rule %q already registered", code))
	}
	r.byCode[code] = rule
	r.order = append(r.order, rule)
}

// Freeze marks the registry immutable. Idempotent.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Get retrieves a rule by its code.
// Returns nil if no rule is found.
func (r *Registry) Get(code string) Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byCode[code]
}

// Has returns true if a rule with the given code is registered.
func (r *Registry) Has(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.byCode[code]
	return exists
}

// Rules returns all registered rules in registration order.
func (r *Registry) Rules() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// All returns all registered rules sorted by code.
func (r *Registry) All() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := slices.Clone(r.order)
	sort.Slice(result, func(i, j int) bool {
		return result[i].Descriptor().Code < result[j].Descriptor().Code
	})
	return result
}

// Codes returns all registered rule codes sorted alphabetically.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]string, 0, len(r.byCode))
	for code := range r.byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// EnabledByDefault returns rules that are enabled by default, sorted by code.
func (r *Registry) EnabledByDefault() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Rule, 0)
	for _, rule := range r.order {
		if rule.Descriptor().EnabledByDefault {
			result = append(result, rule)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Descriptor().Code < result[j].Descriptor().Code
	})
	return result
}

// ByCategory returns rules filtered by category, sorted by code.
func (r *Registry) ByCategory(category string) []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Rule, 0)
	for _, rule := range r.order {
		if rule.Descriptor().Category == category {
			result = append(result, rule)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Descriptor().Code < result[j].Descriptor().Code
	})
	return result
}

// defaultRegistry is the global default registry.
var defaultRegistry = NewRegistry()

// DefaultRegistry returns the global default registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds a rule to the default registry.
func Register(rule Rule) {
	defaultRegistry.Register(rule)
}

// Get retrieves a rule from the default registry.
func Get(code string) Rule {
	return defaultRegistry.Get(code)
}

// All returns all rules from the default registry sorted by code.
func All() []Rule {
	return defaultRegistry.All()
}

// Codes returns all rule codes from the default registry.
func Codes() []string {
	return defaultRegistry.Codes()
}

// EnabledDefault returns rules enabled by default from the default registry.
func EnabledDefault() []Rule {
	return defaultRegistry.EnabledByDefault()
}
