package fs

import (
	"io"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vmsim/mem/vm"
)

var (
	_ vm.File = (*Handle)(nil)
	_ vm.File = (*OSFile)(nil)
)

var _ = Describe("FS", func() {
	var fs *FS

	BeforeEach(func() {
		fs = New()
		Expect(fs.Create("data", []byte("0123456789"))).To(Succeed())
	})

	It("should not create a name twice", func() {
		Expect(fs.Create("data", nil)).To(MatchError(ErrExists))
		Expect(fs.Names()).To(Equal([]string{"data"}))
	})

	It("should fail to open unknown files", func() {
		_, err := fs.Open("missing")

		Expect(err).To(MatchError(ErrNotFound))
	})

	It("should read with end-of-file semantics", func() {
		h, err := fs.Open("data")
		Expect(err).NotTo(HaveOccurred())

		buf := make([]byte, 4)
		n, err := h.ReadAt(buf, 8)

		Expect(n).To(Equal(2))
		Expect(err).To(Equal(io.EOF))
		Expect(buf[:n]).To(Equal([]byte("89")))

		n, err = h.ReadAt(buf, 10)
		Expect(n).To(Equal(0))
		Expect(err).To(Equal(io.EOF))
	})

	It("should not grow files on write", func() {
		h, _ := fs.Open("data")

		n, err := h.WriteAt([]byte("abcd"), 8)

		Expect(n).To(Equal(2))
		Expect(err).To(Equal(io.ErrShortWrite))

		data, _ := fs.Contents("data")
		Expect(string(data)).To(Equal("01234567ab"))
	})

	It("should share bytes but not lifetime between handles", func() {
		h, _ := fs.Open("data")
		other, err := h.Reopen()
		Expect(err).NotTo(HaveOccurred())
		Expect(fs.OpenCount("data")).To(Equal(2))

		_, err = other.WriteAt([]byte("X"), 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(other.Close()).To(Succeed())

		buf := make([]byte, 1)
		_, err = h.ReadAt(buf, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(buf).To(Equal([]byte("X")))
		Expect(fs.OpenCount("data")).To(Equal(1))
	})

	It("should refuse to use a closed handle", func() {
		h, _ := fs.Open("data")
		Expect(h.Close()).To(Succeed())

		Expect(h.Close()).To(MatchError(ErrClosed))
		_, err := h.Length()
		Expect(err).To(MatchError(ErrClosed))
		_, err = h.Reopen()
		Expect(err).To(MatchError(ErrClosed))
	})

	It("should keep removed files alive for open handles", func() {
		h, _ := fs.Open("data")

		Expect(fs.Remove("data")).To(Succeed())

		length, err := h.Length()
		Expect(err).NotTo(HaveOccurred())
		Expect(length).To(Equal(int64(10)))
		_, err = fs.Contents("data")
		Expect(err).To(MatchError(ErrNotFound))
	})
})

var _ = Describe("OSFile", func() {
	It("should reopen host files independently", func() {
		path := filepath.Join(GinkgoT().TempDir(), "mapped")
		Expect(os.WriteFile(path, []byte("hello world"), 0o644)).To(Succeed())

		f, err := OpenOS(path)
		Expect(err).NotTo(HaveOccurred())

		length, err := f.Length()
		Expect(err).NotTo(HaveOccurred())
		Expect(length).To(Equal(int64(11)))

		other, err := f.Reopen()
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Close()).To(Succeed())

		buf := make([]byte, 5)
		_, err = other.ReadAt(buf, 6)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(buf)).To(Equal("world"))
		Expect(other.Close()).To(Succeed())
	})

	It("should fail on missing files", func() {
		_, err := OpenOS(filepath.Join(GinkgoT().TempDir(), "missing"))

		Expect(err).To(HaveOccurred())
	})
})
