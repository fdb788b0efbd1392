package extraction

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func encodePNG() []byte {
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	Expect(png.Encode(&buf, img)).To(Succeed())
	return buf.Bytes()
}

func encodeJPEG() []byte {
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	Expect(jpeg.Encode(&buf, img, nil)).To(Succeed())
	return buf.Bytes()
}

var _ = Describe("PrepareImage", func() {
	When("the input is already PNG", func() {
		It("returns it unchanged", func() {
			data := encodePNG()
			out, contentType, err := PrepareImage(data, "image/png")
			Expect(err).NotTo(HaveOccurred())
			Expect(contentType).To(Equal("image/png"))
			Expect(out).To(Equal(data))
		})
	})

	When("the input is JPEG", func() {
		It("converts it to PNG", func() {
			out, contentType, err := PrepareImage(encodeJPEG(), "image/jpeg")
			Expect(err).NotTo(HaveOccurred())
			Expect(contentType).To(Equal("image/png"))

			_, err = png.Decode(bytes.NewReader(out))
			Expect(err).NotTo(HaveOccurred())
		})
	})

	When("the content type is empty", func() {
		It("assumes JPEG and decodes", func() {
			_, contentType, err := PrepareImage(encodeJPEG(), "")
			Expect(err).NotTo(HaveOccurred())
			Expect(contentType).To(Equal("image/png"))
		})
	})

	When("the bytes are not a decodable image", func() {
		It("returns the error", func() {
			_, _, err := PrepareImage([]byte("definitely not an image"), "image/jpeg")
			Expect(err).To(HaveOccurred())
		})
	})
})
