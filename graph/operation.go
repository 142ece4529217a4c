package graph

import (
	"strings"
	"text/scanner"
)

const (
	operationQuery        = "query"
	operationMutation     = "mutation"
	operationSubscription = "subscription"
)

type operation struct {
	kind string
	name string
}

// selectedOperation reports the kind of operation a request would run. It
// returns "" when the document cannot be read or the selection is ambiguous.
func selectedOperation(document, operationName string) string {
	ops, ok := scanOperations(document)
	if !ok {
		return ""
	}

	if operationName == "" {
		if len(ops) == 1 {
			return ops[0].kind
		}
		return ""
	}

	for _, op := range ops {
		if op.name == operationName {
			return op.kind
		}
	}
	return ""
}

// scanOperations lists the top-level operation definitions of a document.
// Only the definition headers are read; selection sets and arguments are
// skipped by nesting depth.
func scanOperations(document string) ([]operation, bool) {
	var sc scanner.Scanner
	sc.Init(strings.NewReader(document))
	sc.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanStrings

	failed := false
	sc.Error = func(*scanner.Scanner, string) { failed = true }

	var ops []operation
	depth := 0
	inHeader := false
	expectName := false

	for tok := sc.Scan(); tok != scanner.EOF && !failed; tok = sc.Scan() {
		named := expectName
		expectName = false

		switch tok {
		case '#':
			for r := sc.Peek(); r != '\n' && r != '\r' && r != scanner.EOF; r = sc.Peek() {
				sc.Next()
			}
			expectName = named

		case '{':
			if depth == 0 {
				if !inHeader {
					ops = append(ops, operation{kind: operationQuery})
				}
				inHeader = false
			}
			depth++

		case '(', '[':
			depth++

		case '}', ')', ']':
			depth--
			if depth < 0 {
				return nil, false
			}

		case scanner.Ident:
			if depth > 0 {
				continue
			}
			if named {
				ops[len(ops)-1].name = sc.TokenText()
				continue
			}
			if inHeader {
				continue
			}

			switch word := sc.TokenText(); word {
			case operationQuery, operationMutation, operationSubscription:
				ops = append(ops, operation{kind: word})
				expectName = true
			case "fragment":
			default:
				return nil, false
			}
			inHeader = true
		}
	}

	if failed || depth != 0 || inHeader {
		return nil, false
	}
	return ops, true
}
