package ratelimit

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"gopkg.in/yaml.v3"
)

// ErrInvalidPolicy is returned for policies that cannot be used.
var ErrInvalidPolicy = errors.New("invalid rate limit policy")

// Policy is a named rate. The name separates counters of policies that
// share an interval, so it becomes part of the identifier.
type Policy struct {
	Name string `yaml:"name"`
	Rate Rate   `yaml:"rate"`
}

// Identifier scopes key to the policy.
func (p Policy) Identifier(key string) string {
	return p.Name + ":" + key
}

// PolicyResolver picks the policy that applies to a request.
type PolicyResolver interface {
	Resolve(r *http.Request) (Policy, bool)
}

// PolicyResolverFunc adapts a function to PolicyResolver.
type PolicyResolverFunc func(r *http.Request) (Policy, bool)

func (f PolicyResolverFunc) Resolve(r *http.Request) (Policy, bool) { return f(r) }

// Static applies one policy to every request.
func Static(p Policy) PolicyResolver {
	return PolicyResolverFunc(func(*http.Request) (Policy, bool) { return p, true })
}

type pathPolicy struct {
	pattern *regexp.Regexp
	policy  Policy
}

// PathPolicies maps URL path patterns to policies. Patterns are checked in
// the order they were added and the first match wins. Not safe for
// concurrent Add; build it before serving.
type PathPolicies struct {
	routes []pathPolicy
}

func NewPathPolicies() *PathPolicies {
	return &PathPolicies{}
}

// Add registers a policy for paths matching the regular expression.
func (p *PathPolicies) Add(pattern string, policy Policy) error {
	if policy.Name == "" {
		return fmt.Errorf("%w: name is required for pattern %q", ErrInvalidPolicy, pattern)
	}
	if err := policy.Rate.Validate(); err != nil {
		return fmt.Errorf("%w: policy %q: %w", ErrInvalidPolicy, policy.Name, err)
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("%w: policy %q: %w", ErrInvalidPolicy, policy.Name, err)
	}

	p.routes = append(p.routes, pathPolicy{pattern: re, policy: policy})
	return nil
}

func (p *PathPolicies) Resolve(r *http.Request) (Policy, bool) {
	return p.Match(r.URL.Path)
}

// Match returns the first policy whose pattern matches path.
func (p *PathPolicies) Match(path string) (Policy, bool) {
	for _, route := range p.routes {
		if route.pattern.MatchString(path) {
			return route.policy, true
		}
	}
	return Policy{}, false
}

// Len returns the number of registered patterns.
func (p *PathPolicies) Len() int {
	return len(p.routes)
}

type policyDocument struct {
	Policies []struct {
		Name string `yaml:"name"`
		Path string `yaml:"path"`
		Rate Rate   `yaml:"rate"`
	} `yaml:"policies"`
}

// LoadPolicies reads path policies from a YAML document:
//
//	policies:
//	  - name: login
//	    path: ^/login$
//	    rate: 5/minute
//	  - name: api
//	    path: ^/api/
//	    rate: 1000/hour
func LoadPolicies(r io.Reader) (*PathPolicies, error) {
	var doc policyDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPolicy, err)
	}

	policies := NewPathPolicies()
	for _, entry := range doc.Policies {
		if entry.Path == "" {
			return nil, fmt.Errorf("%w: path is required for policy %q", ErrInvalidPolicy, entry.Name)
		}
		if err := policies.Add(entry.Path, Policy{Name: entry.Name, Rate: entry.Rate}); err != nil {
			return nil, err
		}
	}
	return policies, nil
}
