package diag

import "strings"

// Where points at one cell of one multi-method.
type Where struct {
	Method string
	Key    []string // concrete type names per dispatch position
}

// String renders the cell as method(T1, T2).
func (w Where) String() string {
	return w.Method + "(" + strings.Join(w.Key, ", ") + ")"
}

type Note struct {
	Msg string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Where    Where
	Notes    []Note
}
