package vm

// An AddressSpace is the memory view of one process.
type AddressSpace struct {
	pid PID
	spt *SupplementalPageTable

	// Executable is the program file of the process. The address space owns
	// the handle and closes it when destroyed. Pages loaded from the program
	// image read through it.
	Executable File
}

// PID returns the process the address space belongs to.
func (a *AddressSpace) PID() PID {
	return a.pid
}

// SPT returns the supplemental page table of the address space.
func (a *AddressSpace) SPT() *SupplementalPageTable {
	return a.spt
}
