package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Таблица символов
	SymInfo              Code = 3000
	SymDuplicateName     Code = 3001
	SymCapacityExceeded  Code = 3002
	SymInvalidState      Code = 3003
	SymInvalidProperties Code = 3004
	SymUndeclared        Code = 3005
	SymNotCallable       Code = 3006
	SymArityMismatch     Code = 3007
	SymShadowed          Code = 3008
	SymExpectationFailed Code = 3009

	// I/O
	IOInfo          Code = 4000
	IOLoadFileError Code = 4001

	// Сценарии
	ScnInfo        Code = 5000
	ScnDecodeError Code = 5001
	ScnUnknownOp   Code = 5002
	ScnBadType     Code = 5003
	ScnMissingName Code = 5004
)

var (
	codeDescription = map[Code]string{
		UnknownCode:          "Unknown error",
		SymInfo:              "Symbol table information",
		SymDuplicateName:     "identifier declared twice in the same scope",
		SymCapacityExceeded:  "symbol table capacity exceeded",
		SymInvalidState:      "symbol table operation not allowed in this state",
		SymInvalidProperties: "invalid identifier properties",
		SymUndeclared:        "undeclared identifier",
		SymNotCallable:       "identifier is not a function or procedure",
		SymArityMismatch:     "wrong number of arguments",
		SymShadowed:          "local declaration shadows a global one",
		SymExpectationFailed: "scenario expectation failed",
		IOInfo:               "I/O information",
		IOLoadFileError:      "I/O load file error",
		ScnInfo:              "Scenario information",
		ScnDecodeError:       "scenario file could not be decoded",
		ScnUnknownOp:         "unknown scenario operation",
		ScnBadType:           "unknown type name",
		ScnMissingName:       "operation requires a name",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SYM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("SCN%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
