package vm

// AuxKind tells which payload an uninitialized page carries.
type AuxKind int

// The kinds of auxiliary payloads.
const (
	AuxLoad AuxKind = iota
	AuxMappedFile
	AuxAnon
)

func (k AuxKind) String() string {
	switch k {
	case AuxLoad:
		return "load"
	case AuxMappedFile:
		return "mapped-file"
	case AuxAnon:
		return "anon"
	default:
		return "unknown"
	}
}

// Aux is the payload an uninitialized page hands to its initializer. The set
// of payloads is closed: *LoadAux, *MappedFileAux and AnonAux.
type Aux interface {
	Kind() AuxKind
}

// LoadAux describes a piece of a program image. The file is the executable of
// the address space and is not owned by the page.
type LoadAux struct {
	File      File
	Offset    int64
	ReadBytes uint64
	ZeroBytes uint64
}

// Kind returns AuxLoad.
func (*LoadAux) Kind() AuxKind { return AuxLoad }

// MappedFileAux describes one page of a memory mapping. The page owns File,
// which is a handle reopened for this page alone.
type MappedFileAux struct {
	File      File
	Offset    int64
	ReadBytes uint64
	ZeroBytes uint64
	MapBase   uint64
}

// Kind returns AuxMappedFile.
func (*MappedFileAux) Kind() AuxKind { return AuxMappedFile }

// AnonAux is the empty payload of anonymous pages.
type AnonAux struct{}

// Kind returns AuxAnon.
func (AnonAux) Kind() AuxKind { return AuxAnon }
