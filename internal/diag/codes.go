package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// Registry
	RegInfo            Code = 1000
	RegEmptyHierarchy  Code = 1001
	RegForeignRegistry Code = 1002

	// Resolution
	DispInfo           Code = 2000
	DispAmbiguous      Code = 2001
	DispUncovered      Code = 2002
	DispShadowed       Code = 2003
	DispUnknownType    Code = 2004
	DispNoGenericFloor Code = 2005
)

var codeDescription = map[Code]string{
	UnknownCode:        "Unknown error",
	RegInfo:            "Registry information",
	RegEmptyHierarchy:  "Dispatch position has no concrete types",
	RegForeignRegistry: "Implementation declares a type from another registry",
	DispInfo:           "Dispatch information",
	DispAmbiguous:      "Ambiguous dispatch",
	DispUncovered:      "No applicable specialization",
	DispShadowed:       "Implementation never selected",
	DispUnknownType:    "Declared type is not registered",
	DispNoGenericFloor: "No generic fallback for position",
}

// ID returns the stable short identifier, e.g. D2001.
func (c Code) ID() string {
	switch {
	case c >= 1000 && c < 2000:
		return fmt.Sprintf("R%04d", int(c))
	case c >= 2000 && c < 3000:
		return fmt.Sprintf("D%04d", int(c))
	}
	return "E0000"
}

func (c Code) Title() string {
	if d, ok := codeDescription[c]; ok {
		return d
	}
	return codeDescription[UnknownCode]
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
