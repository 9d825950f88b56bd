package main

import (
	"fmt"

	"github.com/irisprotocol/iris3pc/pkg/ringelem"
)

// resolveRingWidth validates the --ring-width flag against the fixed set of
// supported widths only; protocols/iris's own minimum-width guard runs later,
// when iris.New builds the matcher.
func resolveRingWidth() (ringelem.Width, error) {
	w := ringelem.Width(ringWidth)
	if !w.Valid() {
		return 0, fmt.Errorf("iris3pc: unsupported ring width %d", ringWidth)
	}
	return w, nil
}

func describeEngine(name string) (string, error) {
	switch name {
	case "a":
		return "ENGINE-A (semi-honest)", nil
	case "auth":
		return "ENGINE-A (authenticated)", nil
	case "b":
		return "ENGINE-B (malicious)", nil
	}
	return "", fmt.Errorf("iris3pc: unknown engine %q (want a, auth, or b)", name)
}
