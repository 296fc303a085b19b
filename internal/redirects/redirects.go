// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package redirects manages path redirects. All integrity rules are applied
// when rules are written, so resolution is a plain map walk: no cycle or
// depth checking is needed on the hot path.
package redirects

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"pressroom/internal/models"
	"pressroom/internal/store"
)

// maxHops caps how many redirect rules may chain together. Writes that
// would push any chain past this are rejected.
const maxHops = 3

// Violation is one broken integrity rule, tied to the field that broke it.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violation found in a redirect write, so the
// caller can show them all at once instead of one per attempt.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Field + ": " + v.Message
	}
	return "invalid redirect: " + strings.Join(msgs, "; ")
}

// Resolution is the outcome of following redirects from a path. The status
// code is always the first matched rule's code, however many hops follow.
type Resolution struct {
	Path       string `json:"path"`
	Target     string `json:"target"`
	StatusCode int    `json:"status_code"`
	Hops       int    `json:"hops"`
}

// Service validates redirect writes and resolves paths against an in-memory
// copy of the enabled rules. The copy reloads after every mutation.
type Service struct {
	store *store.RedirectStore

	mu    sync.RWMutex
	rules map[string]models.Redirect
}

// NewService creates a redirect service. Call Reload before serving.
func NewService(st *store.RedirectStore) *Service {
	return &Service{store: st, rules: map[string]models.Redirect{}}
}

// List returns every stored rule, enabled or not.
func (s *Service) List() ([]models.Redirect, error) {
	return s.store.List()
}

// Reload replaces the in-memory rule set with the enabled rules on disk.
func (s *Service) Reload() error {
	rules, err := s.store.EnabledMap()
	if err != nil {
		return fmt.Errorf("load redirect rules: %w", err)
	}
	s.mu.Lock()
	s.rules = rules
	s.mu.Unlock()
	return nil
}

// Resolve follows enabled redirects from the given path. It returns nil when
// no rule matches. The final target is returned together with the first
// hop's status code, so a chain behaves like a single redirect for clients.
func (s *Service) Resolve(path string) *Resolution {
	s.mu.RLock()
	defer s.mu.RUnlock()

	first, ok := s.rules[path]
	if !ok {
		return nil
	}
	target := first.TargetPath
	hops := 1
	for hops < maxHops {
		next, ok := s.rules[target]
		if !ok {
			break
		}
		target = next.TargetPath
		hops++
	}
	return &Resolution{
		Path:       path,
		Target:     target,
		StatusCode: first.StatusCode,
		Hops:       hops,
	}
}

// Validate checks a candidate rule against the current rule set without
// writing anything. When the candidate replaces an existing rule, pass that
// rule's id so its current version is left out of the checks.
func (s *Service) Validate(r *models.Redirect, excludeID uuid.UUID) []Violation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.validate(r, excludeID)
}

// Create validates and persists a new rule, then reloads the rule set.
func (s *Service) Create(r *models.Redirect) (*models.Redirect, error) {
	s.mu.RLock()
	violations := s.validate(r, uuid.Nil)
	s.mu.RUnlock()
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	created, err := s.store.Create(r)
	if err != nil {
		return nil, err
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return created, nil
}

// Update validates and persists a changed rule, then reloads the rule set.
// Returns nil when the rule does not exist.
func (s *Service) Update(r *models.Redirect) (*models.Redirect, error) {
	s.mu.RLock()
	violations := s.validate(r, r.ID)
	s.mu.RUnlock()
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	updated, err := s.store.Update(r)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, nil
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a rule and reloads. Removing a rule can only shorten
// chains, so no validation is needed. Returns nil when the rule is absent.
func (s *Service) Delete(id uuid.UUID) (*models.Redirect, error) {
	deleted, err := s.store.Delete(id)
	if err != nil {
		return nil, err
	}
	if deleted == nil {
		return nil, nil
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return deleted, nil
}

// validate runs under the caller's read lock.
func (s *Service) validate(r *models.Redirect, excludeID uuid.UUID) []Violation {
	var violations []Violation

	if !rootedPath(r.SourcePath) {
		violations = append(violations, Violation{
			Field:   "source_path",
			Message: "must be a rooted path like /old-page",
		})
	}
	if !rootedPath(r.TargetPath) {
		violations = append(violations, Violation{
			Field:   "target_path",
			Message: "must be an internal rooted path, external targets are not allowed",
		})
	}
	if !models.ValidRedirectCode(r.StatusCode) {
		violations = append(violations, Violation{
			Field:   "status_code",
			Message: "must be 301 or 302",
		})
	}
	if len(violations) > 0 {
		return violations
	}

	// Effective rule set: current enabled rules minus the rule being
	// replaced. Disabled candidates stop here; they take no part in
	// resolution, so chains cannot break on them.
	if !r.Enabled {
		return nil
	}

	eff := make(map[string]models.Redirect, len(s.rules)+1)
	for src, rule := range s.rules {
		if excludeID != uuid.Nil && rule.ID == excludeID {
			continue
		}
		eff[src] = rule
	}

	if _, taken := eff[r.SourcePath]; taken {
		violations = append(violations, Violation{
			Field:   "source_path",
			Message: "an enabled redirect for this source already exists",
		})
		return violations
	}
	eff[r.SourcePath] = *r

	if cycles(eff, r.SourcePath) {
		return append(violations, Violation{
			Field:   "target_path",
			Message: "redirect chain would loop back on itself",
		})
	}
	if chainLength(eff, r) > maxHops {
		violations = append(violations, Violation{
			Field:   "target_path",
			Message: fmt.Sprintf("redirect chain would exceed %d hops", maxHops),
		})
	}
	return violations
}

// rootedPath reports whether p is an internal absolute path. Scheme-style
// and protocol-relative values both fail the prefix checks.
func rootedPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//")
}

// cycles reports whether following edges from the given source ever returns
// to a visited node. A new edge can only create a cycle running through it,
// so starting at the candidate's source finds every possible loop.
func cycles(rules map[string]models.Redirect, source string) bool {
	seen := map[string]bool{source: true}
	cur := source
	for {
		rule, ok := rules[cur]
		if !ok {
			return false
		}
		cur = rule.TargetPath
		if seen[cur] {
			return true
		}
		seen[cur] = true
	}
}

// chainLength returns the length in hops of the longest chain running
// through the candidate rule: the deepest chain of existing rules feeding
// its source, the candidate's own hop, and the chain its target leads into.
func chainLength(rules map[string]models.Redirect, r *models.Redirect) int {
	// Forward from the candidate's target.
	forward := 0
	cur := r.TargetPath
	for {
		rule, ok := rules[cur]
		if !ok {
			break
		}
		forward++
		cur = rule.TargetPath
		if forward > maxHops {
			break
		}
	}

	// Reverse index for walking chains that end at the candidate's source.
	incoming := make(map[string][]string, len(rules))
	for src, rule := range rules {
		if src == r.SourcePath {
			continue
		}
		incoming[rule.TargetPath] = append(incoming[rule.TargetPath], src)
	}

	return deepestInto(incoming, r.SourcePath, map[string]bool{}) + 1 + forward
}

// deepestInto returns the longest chain of rules ending at the given path.
func deepestInto(incoming map[string][]string, path string, seen map[string]bool) int {
	if seen[path] {
		return 0
	}
	seen[path] = true
	defer delete(seen, path)

	deepest := 0
	for _, src := range incoming[path] {
		if d := deepestInto(incoming, src, seen) + 1; d > deepest {
			deepest = d
		}
	}
	return deepest
}
