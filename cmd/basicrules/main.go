// basicrules evaluates rule-expression trees against structured data.
//
// Rules are trees of composable functions (comparisons, boolean logic,
// arithmetic, field lookups, constants) stored as YAML or JSON documents.
// The command loads them, evaluates them against input data, renders debug
// traces and serves them over HTTP with hot reload.
//
// Usage:
//
//	# Evaluate the rules in ./rules against a JSON document
//	basicrules eval --data input.json
//
//	# Evaluate an ad-hoc expression
//	basicrules eval --expr '{add: [{param: [a]}, 2]}' --data input.yaml
//
//	# Show each node's result
//	basicrules debug --rules pricing.yaml --data input.json
//
//	# Validate rule files
//	basicrules lint rules/
//
//	# Convert a rule file to JSON
//	basicrules fmt pricing.yaml --to json
//
//	# Serve the evaluation API with hot reload
//	basicrules serve --watch
package main

func main() {
	Execute()
}
