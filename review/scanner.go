package review

import "strings"

// Category classifies a finding.
type Category string

// Finding categories. Narrative findings come from the external review
// service, everything else from the rule scanner.
const (
	CategoryHygiene       Category = "hygiene"
	CategoryErrorHandling Category = "error-handling"
	CategoryPerformance   Category = "performance"
	CategoryConcurrency   Category = "concurrency"
	CategorySecurity      Category = "security"
	CategoryTesting       Category = "testing"
	CategoryNarrative     Category = "narrative"
)

// Finding is one advisory observation about a patch. Findings are never
// blocking; they are textual suggestions for the reviewer to weigh.
type Finding struct {
	RuleID   string
	Category Category
	Message  string
}

// Rule pairs a predicate over raw patch text with the advisory it emits.
// Rules are independent: each one sees the whole patch and fires at most
// once, regardless of what the others matched.
type Rule struct {
	ID       string
	Category Category
	Message  string
	Match    func(patch string) bool
}

func contains(substrs ...string) func(string) bool {
	return func(patch string) bool {
		for _, s := range substrs {
			if strings.Contains(patch, s) {
				return true
			}
		}
		return false
	}
}

// DefaultRules returns the built-in rule set in evaluation order. The
// membership is data, not code: callers can disable entries by ID or
// append their own.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:       "todo-marker",
			Category: CategoryHygiene,
			Message:  "There are TODOs/FIXMEs in the code - should these be addressed before merging?",
			Match:    contains("TODO", "FIXME"),
		},
		{
			ID:       "debug-output",
			Category: CategoryHygiene,
			Message:  "Debug print statements found - remove them before merging",
			Match:    contains("println!", "dbg!"),
		},
		{
			ID:       "unwrap",
			Category: CategoryErrorHandling,
			Message:  "Replace unwrap() calls with proper error handling",
			Match:    contains("unwrap()"),
		},
		{
			ID:       "expect",
			Category: CategoryErrorHandling,
			Message:  "expect() aborts with a message - handle the failure gracefully instead",
			Match:    contains(".expect("),
		},
		{
			ID:       "panic",
			Category: CategoryErrorHandling,
			Message:  "Consider if panic! is appropriate here or if errors should be handled via Result/Option",
			Match:    contains("panic!"),
		},
		{
			ID:       "clone",
			Category: CategoryPerformance,
			Message:  "Cloning copies data - prefer references where possible",
			Match:    contains(".clone()", ".to_owned()"),
		},
		{
			ID:       "box-alloc",
			Category: CategoryPerformance,
			Message:  "Box::new heap-allocates - make sure the indirection is justified",
			Match:    contains("Box::new"),
		},
		{
			ID:       "unsized-vec",
			Category: CategoryPerformance,
			Message:  "Vec::new() without a capacity hint - use Vec::with_capacity when the size is known",
			Match: func(patch string) bool {
				return strings.Contains(patch, "Vec::new()") && !strings.Contains(patch, "with_capacity")
			},
		},
		{
			ID:       "mutex",
			Category: CategoryConcurrency,
			Message:  "Mutex in use - consider RwLock if reads dominate writes",
			Match: func(patch string) bool {
				return strings.Contains(patch, "Mutex<") && !strings.Contains(patch, "RwLock")
			},
		},
		{
			ID:       "serial-await",
			Category: CategoryConcurrency,
			Message:  "Awaited work over a collection - consider running the futures in parallel",
			Match: func(patch string) bool {
				return strings.Contains(patch, ".await") && strings.Contains(patch, "Vec<")
			},
		},
		{
			ID:       "unsafe",
			Category: CategorySecurity,
			Message:  "unsafe code requires a documented safety justification",
			Match:    contains("unsafe"),
		},
		{
			ID:       "raw-pointer",
			Category: CategorySecurity,
			Message:  "Raw pointer access - verify memory safety around it",
			Match:    contains("*mut ", "*const "),
		},
		{
			ID:       "untested-code",
			Category: CategoryTesting,
			Message:  "New functions are added without accompanying tests",
			Match:    addsUntestedFunction,
		},
	}
}

// addsUntestedFunction reports whether the patch adds at least one
// function definition while carrying no test annotation at all.
func addsUntestedFunction(patch string) bool {
	if strings.Contains(patch, "#[test]") || strings.Contains(patch, "#[cfg(test)]") {
		return false
	}
	for _, line := range strings.Split(patch, "\n") {
		if !strings.HasPrefix(line, "+") || strings.HasPrefix(line, "+++") {
			continue
		}
		added := line[1:]
		if strings.Contains(added, "fn ") {
			return true
		}
	}
	return false
}

// Scanner applies an ordered rule set to patches.
type Scanner struct {
	rules []Rule
}

// NewScanner creates a scanner over the default rules, minus any whose ID
// appears in disabled.
func NewScanner(disabled ...string) *Scanner {
	off := make(map[string]bool, len(disabled))
	for _, id := range disabled {
		off[id] = true
	}

	var rules []Rule
	for _, r := range DefaultRules() {
		if !off[r.ID] {
			rules = append(rules, r)
		}
	}
	return &Scanner{rules: rules}
}

// NewScannerWithRules creates a scanner over an explicit rule set,
// evaluated in the order given.
func NewScannerWithRules(rules []Rule) *Scanner {
	return &Scanner{rules: rules}
}

// Scan evaluates every rule against the patch and returns the findings in
// rule order. A patch that trips nothing returns an empty slice.
func (s *Scanner) Scan(patch string) []Finding {
	var findings []Finding
	for _, r := range s.rules {
		if r.Match(patch) {
			findings = append(findings, Finding{
				RuleID:   r.ID,
				Category: r.Category,
				Message:  r.Message,
			})
		}
	}
	return findings
}
