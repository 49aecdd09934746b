package source

// FileID indexes a file inside its FileSet.
type FileID uint32

// FileFlags records how the loaded bytes differ from what is on disk.
type FileFlags uint8

const (
	FileVirtual        FileFlags = 1 << iota // добавлен из памяти: тест, stdin, заглушка ошибки загрузки
	FileHadBOM                               // UTF-8 BOM снят
	FileNormalizedCRLF                       // \r\n заменены на \n
)

// File is one scenario or config file after normalization.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // offsets of '\n'
	Flags   FileFlags
}

// LineCol is a 1-based line and byte column.
type LineCol struct {
	Line uint32
	Col  uint32
}
