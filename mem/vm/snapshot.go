package vm

// PageInfo describes the state of one page.
type PageInfo struct {
	VAddr    uint64 `json:"vaddr"`
	Writable bool   `json:"writable"`
	Kind     string `json:"kind"`
	Variant  string `json:"variant"`
	Resident bool   `json:"resident"`
	KVA      uint64 `json:"kva,omitempty"`
	MapBase  uint64 `json:"map_base,omitempty"`
	Swapped  bool   `json:"swapped,omitempty"`
}

// SpaceInfo describes an address space.
type SpaceInfo struct {
	PID   PID        `json:"pid"`
	Pages []PageInfo `json:"pages"`
}

// Describe returns the state of every page of space. The result is only
// consistent while the process owning space is not running.
func (s *System) Describe(space *AddressSpace) SpaceInfo {
	info := SpaceInfo{PID: space.pid}

	for _, p := range space.spt.Pages() {
		f := s.frames.frameOf(p)

		pi := PageInfo{
			VAddr:    p.vAddr,
			Writable: p.writable,
			Kind:     p.Kind().String(),
			Variant:  p.variant.String(),
			Resident: f != nil,
		}

		if f != nil {
			pi.KVA = f.kva
		}

		pi.MapBase, _ = p.MapBase()
		pi.Swapped = p.variant == KindAnon && p.anon.swapped

		info.Pages = append(info.Pages, pi)
	}

	return info
}

// Snapshot describes the whole system.
type Snapshot struct {
	PageSize uint64      `json:"page_size"`
	Spaces   []SpaceInfo `json:"spaces"`
	Frames   []FrameInfo `json:"frames"`
}

// Snapshot returns the state of every live address space and every frame.
func (s *System) Snapshot() Snapshot {
	snapshot := Snapshot{
		PageSize: s.pageSize,
		Frames:   s.frames.Frames(),
	}

	for _, space := range s.AddressSpaces() {
		snapshot.Spaces = append(snapshot.Spaces, s.Describe(space))
	}

	return snapshot
}
