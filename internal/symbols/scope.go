package symbols

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid    ScopeKind = iota
	ScopeGlobal               // program-level declarations, lives for the whole compilation
	ScopeSubroutine           // body of a function or procedure
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeGlobal:
		return "global"
	case ScopeSubroutine:
		return "subroutine"
	default:
		return "invalid"
	}
}
