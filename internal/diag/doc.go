// Package diag defines the diagnostic model shared by the symbol table driver
// and the CLI.
//
// Diagnostic is the central record: a Severity, a stable numeric Code (see
// codes.go, rendered as SYM3001, SCN5002, ...), a short Message, the Primary
// span and optional Notes pointing at related places, e.g. the previous
// declaration of a duplicated name.
//
// Producers emit through a Reporter, usually via ReportError/ReportWarning and
// the ReportBuilder chain, and never format or print anything themselves.
// BagReporter collects into a Bag, which supports limits, sorting and
// deduplication. Rendering lives in internal/diagfmt.
package diag
