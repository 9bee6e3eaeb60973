package pricing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
)

// Expression prices with a Lisp expression evaluated in a fresh zygomys
// sandbox. The expression sees q (the quantity), width and height.
//
//	(+ 800 (* q 0.0009))
type Expression struct {
	Source string
}

// ExprError is a parse or runtime failure in a price expression.
type ExprError struct {
	Line    int
	Message string
}

func (e ExprError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("price expression line %d: %s", e.Line, e.Message)
	}
	return "price expression: " + e.Message
}

func (f Expression) evaluate(q float64, widthMm, heightMm int) (amount float64, err error) {
	if strings.TrimSpace(f.Source) == "" {
		return 0, ExprError{Message: "empty expression"}
	}
	defer func() {
		if r := recover(); r != nil {
			err = ExprError{Message: fmt.Sprintf("panic during evaluation: %v", r)}
		}
	}()

	// Sandbox mode keeps catalog-supplied code away from the filesystem.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	src := fmt.Sprintf("(def q %s)\n(def width %d)\n(def height %d)\n%s",
		strconv.FormatFloat(q, 'f', -1, 64), widthMm, heightMm, f.Source)
	if err := env.LoadString(src); err != nil {
		return 0, parseZygomysError(err)
	}
	res, err := env.Run()
	if err != nil {
		return 0, parseZygomysError(err)
	}

	switch v := res.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, ExprError{Message: fmt.Sprintf("expression produced %T, want a number", res)}
}

var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// parseZygomysError extracts line information from a zygomys error. The
// three binding lines prepended to every expression are subtracted so the
// line refers to the catalog's own source.
func parseZygomysError(err error) ExprError {
	msg := strings.TrimSpace(err.Error())
	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		line -= 3
		if line < 0 {
			line = 0
		}
		return ExprError{Line: line, Message: strings.TrimSpace(m[2])}
	}
	return ExprError{Message: msg}
}
