package diag

// Errorf is a shortcut for building an error diagnostic without a reporter.
func Errorf(code Code, where Where, msg string, notes ...string) Diagnostic {
	d := Diagnostic{Severity: SevError, Code: code, Message: msg, Where: where}
	for _, n := range notes {
		d.Notes = append(d.Notes, Note{Msg: n})
	}
	return d
}
