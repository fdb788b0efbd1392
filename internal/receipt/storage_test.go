package receipt

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage *LocalStorage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(filepath.Join(tmpDir, "uploads"))
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Save", func() {
		It("deposits an object and returns its path", func() {
			path, err := storage.Save("receipts/img1.png", []byte("image bytes"))
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal("receipts/img1.png"))

			data, err := os.ReadFile(filepath.Join(tmpDir, "uploads", "receipts", "img1.png"))
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("image bytes")))
		})

		It("rejects paths that escape the storage root", func() {
			_, err := storage.Save("../outside.png", []byte("image bytes"))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Get", func() {
		When("the object exists", func() {
			BeforeEach(func() {
				_, err := storage.Save("img1.png", []byte("image bytes"))
				Expect(err).NotTo(HaveOccurred())
			})

			It("returns its bytes", func() {
				data, err := storage.Get("img1.png")
				Expect(err).NotTo(HaveOccurred())
				Expect(data).To(Equal([]byte("image bytes")))
			})
		})

		When("the object does not exist", func() {
			It("returns an error", func() {
				_, err := storage.Get("missing.png")
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Delete", func() {
		When("the object exists", func() {
			BeforeEach(func() {
				_, err := storage.Save("img1.png", []byte("image bytes"))
				Expect(err).NotTo(HaveOccurred())
			})

			It("removes it", func() {
				Expect(storage.Delete("img1.png")).NotTo(HaveOccurred())
				_, err := storage.Get("img1.png")
				Expect(err).To(HaveOccurred())
			})
		})

		When("the object does not exist", func() {
			It("returns an error", func() {
				Expect(storage.Delete("missing.png")).To(HaveOccurred())
			})
		})
	})
})
