package vm

import (
	"fmt"
	"sort"
	"sync"
)

// A SupplementalPageTable records every page of one address space, keyed by
// page-aligned virtual address. The table is the only owner of its pages.
type SupplementalPageTable struct {
	sync.Mutex
	log2PageSize uint64
	pages        map[uint64]*Page
}

// NewSupplementalPageTable creates an empty table for pages of
// 1<<log2PageSize bytes.
func NewSupplementalPageTable(log2PageSize uint64) *SupplementalPageTable {
	return &SupplementalPageTable{
		log2PageSize: log2PageSize,
		pages:        make(map[uint64]*Page),
	}
}

func (t *SupplementalPageTable) alignToPage(addr uint64) uint64 {
	return (addr >> t.log2PageSize) << t.log2PageSize
}

// Find returns the page covering vAddr.
func (t *SupplementalPageTable) Find(vAddr uint64) (*Page, bool) {
	t.Lock()
	defer t.Unlock()

	p, found := t.pages[t.alignToPage(vAddr)]

	return p, found
}

// Insert adds a page. It fails without touching the table if the address is
// taken.
func (t *SupplementalPageTable) Insert(p *Page) error {
	t.Lock()
	defer t.Unlock()

	if _, found := t.pages[p.vAddr]; found {
		return fmt.Errorf("%w at 0x%x", ErrPageExists, p.vAddr)
	}

	t.pages[p.vAddr] = p

	return nil
}

func (t *SupplementalPageTable) remove(p *Page) {
	t.Lock()
	defer t.Unlock()

	t.pageMustBe(p)
	delete(t.pages, p.vAddr)
}

func (t *SupplementalPageTable) pageMustBe(p *Page) {
	if t.pages[p.vAddr] != p {
		panic("page does not exist")
	}
}

// Len returns the number of pages.
func (t *SupplementalPageTable) Len() int {
	t.Lock()
	defer t.Unlock()

	return len(t.pages)
}

// Pages returns all pages ordered by virtual address.
func (t *SupplementalPageTable) Pages() []*Page {
	t.Lock()
	defer t.Unlock()

	pages := make([]*Page, 0, len(t.pages))
	for _, p := range t.pages {
		pages = append(pages, p)
	}

	sort.Slice(pages, func(i, j int) bool {
		return pages[i].vAddr < pages[j].vAddr
	})

	return pages
}
