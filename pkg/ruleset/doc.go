// Package ruleset loads named rules from documents and evaluates them as a
// unit.
//
// A rule document holds a list of rules, each with a name, an optional
// description and an expression in the nested-mapping representation of
// package rules:
//
//	name: pricing
//	rules:
//	  - name: discount
//	    expression:
//	      and:
//	        - {param: [user.member]}
//	        - {gte: [{param: [cart.total]}, 100]}
//
// An Engine serves the current ruleset of a Source. Reload swaps in a new
// ruleset atomically and keeps the previous one when loading fails; a
// FileWatcher triggers reloads when rule files change.
//
//	engine := ruleset.NewEngine(ruleset.NewFileSource(cfg, nil), ruleset.WithLogger(logger))
//	if err := engine.Load(ctx); err != nil {
//		return err
//	}
//	report, err := engine.Evaluate(ctx, data)
package ruleset
