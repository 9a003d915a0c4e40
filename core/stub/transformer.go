// Package stub rewrites a SourceTree into its stub form: every function body
// becomes a single no-op, module-level doc-comments are dropped, and every
// other statement survives untouched and in order.
package stub

import (
	"github.com/tristendillon/doppelganger/core/models"
)

// Policy is the fixed stubbing rule set.
type Policy struct {
	// NoOp builds the statement that replaces a function body. It must be a
	// valid sole body for both def and async def.
	NoOp func() models.Stmt
	// DropModuleDocs removes bare string statements at module level.
	DropModuleDocs bool
	// NestedClasses stubs classes nested inside classes, at any depth.
	NestedClasses bool
}

var StubPolicy = Policy{
	NoOp:           func() models.Stmt { return &models.Pass{} },
	DropModuleDocs: true,
	NestedClasses:  true,
}

// Transformer applies a Policy to modules in place.
type Transformer struct {
	policy Policy
}

func NewTransformer() *Transformer {
	return &Transformer{policy: StubPolicy}
}

// Transform rewrites mod in place and returns it.
func (t *Transformer) Transform(mod *models.Module) *models.Module {
	body := make([]models.Stmt, 0, len(mod.Body))
	for _, s := range mod.Body {
		if _, ok := s.(*models.DocComment); ok && t.policy.DropModuleDocs {
			continue
		}
		body = append(body, t.rewrite(s))
	}
	mod.Body = body
	return mod
}

func (t *Transformer) rewrite(s models.Stmt) models.Stmt {
	switch s := s.(type) {
	case *models.FunctionDef:
		s.Body = []models.Stmt{t.policy.NoOp()}
	case *models.ClassDef:
		t.rewriteClass(s)
	}
	return s
}

// rewriteClass stubs the direct function members of c and, when the policy
// says so, recurses into nested classes. Other members keep their position.
func (t *Transformer) rewriteClass(c *models.ClassDef) {
	for _, member := range c.Body {
		switch m := member.(type) {
		case *models.FunctionDef:
			t.rewrite(m)
		case *models.ClassDef:
			if t.policy.NestedClasses {
				t.rewriteClass(m)
			}
		}
	}
}
