package vm

import "fmt"

// VariantKind identifies how a page is backed.
type VariantKind int

// The page variants.
const (
	KindUninit VariantKind = iota
	KindAnon
	KindFile
)

func (k VariantKind) String() string {
	switch k {
	case KindUninit:
		return "uninit"
	case KindAnon:
		return "anon"
	case KindFile:
		return "file"
	default:
		return fmt.Sprintf("VariantKind(%d)", int(k))
	}
}

// An Initializer fills a freshly transmuted page. It runs while the page's
// frame is bound and pinned, so Contents is valid.
type Initializer func(page *Page, aux Aux) error

// A Page is one page-sized unit of an address space. Pages are owned by the
// supplemental page table of their address space.
type Page struct {
	vAddr    uint64
	writable bool
	space    *AddressSpace

	// Exactly one of uninit, anon and file is the active variant, selected
	// by variant. During transmutation uninit stays set until the
	// initializer succeeds.
	variant VariantKind
	uninit  *uninitPage
	anon    *anonPage
	file    *filePage

	// Guarded by the frame manager.
	frame *Frame
}

// VAddr returns the page-aligned virtual address of the page.
func (p *Page) VAddr() uint64 {
	return p.vAddr
}

// Writable reports whether user writes are permitted.
func (p *Page) Writable() bool {
	return p.writable
}

// Space returns the address space that owns the page.
func (p *Page) Space() *AddressSpace {
	return p.space
}

// VariantKind returns the variant currently backing the page.
func (p *Page) VariantKind() VariantKind {
	return p.variant
}

// Kind returns the kind of the page. An uninitialized page reports the kind
// it turns into on its first fault.
func (p *Page) Kind() VariantKind {
	if p.variant == KindUninit {
		return p.uninit.target
	}

	return p.variant
}

// Contents returns the bytes of the bound frame, or nil when the page is not
// resident. Only the goroutine that holds the frame pinned may rely on it.
func (p *Page) Contents() []byte {
	if p.frame == nil {
		return nil
	}

	return p.frame.data
}

// MapBase returns the base address of the mapping the page belongs to. The
// bool is false for pages that are not part of a mapping.
func (p *Page) MapBase() (uint64, bool) {
	switch p.variant {
	case KindFile:
		return p.file.mapBase, true
	case KindUninit:
		if aux, ok := p.uninit.aux.(*MappedFileAux); ok {
			return aux.MapBase, true
		}
	}

	return 0, false
}

func (p *Page) pid() PID {
	return p.space.pid
}

func (p *Page) String() string {
	return fmt.Sprintf("page(pid=%d, va=0x%x, %s)", p.pid(), p.vAddr, p.variant)
}
