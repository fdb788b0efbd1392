package receipt

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Server", func() {
	var (
		db      *mockDB
		storage *mockStorage
		text    *mockTextExtractor
		model   *mockStructuredExtractor
		service *Service
		server  *Server
		rec     *httptest.ResponseRecorder
	)

	BeforeEach(func() {
		db = newMockDB()
		storage = newMockStorage()
		text = &mockTextExtractor{text: "DOLLAR TREE\nTOTAL 27.17"}
		model = &mockStructuredExtractor{response: validResponse}
		service = NewServiceWithDeps(db, storage, text, model, &mockIDGenerator{prefix: "test-id"}, &mockTimeSource{now: time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)})
		server = NewServer(service, BasicAuth{})
		rec = httptest.NewRecorder()
	})

	Describe("POST /api/events/object-finalized", func() {
		var body string

		BeforeEach(func() {
			storage.files["receipts/img1.png"] = []byte("fake image data")
			body = `{"bucket": "receipts-bucket", "path": "receipts/img1.png", "contentType": "image/png"}`
		})

		JustBeforeEach(func() {
			req := httptest.NewRequest("POST", "/api/events/object-finalized", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			server.ServeHTTP(rec, req)
		})

		When("the event is well formed", func() {
			It("acknowledges with 204 and ingests the object", func() {
				Expect(rec.Code).To(Equal(http.StatusNoContent))
				Expect(db.receipts).To(HaveLen(1))
			})
		})

		When("the pipeline fails", func() {
			BeforeEach(func() {
				model.response = "not json"
			})

			It("still acknowledges with 204", func() {
				Expect(rec.Code).To(Equal(http.StatusNoContent))
			})

			It("records the failure", func() {
				Expect(db.errorLog).To(HaveLen(1))
			})
		})

		When("the body is not JSON", func() {
			BeforeEach(func() {
				body = "not json"
			})

			It("responds 400", func() {
				Expect(rec.Code).To(Equal(http.StatusBadRequest))
			})
		})

		When("the path is missing", func() {
			BeforeEach(func() {
				body = `{"bucket": "receipts-bucket", "contentType": "image/png"}`
			})

			It("responds 400", func() {
				Expect(rec.Code).To(Equal(http.StatusBadRequest))
			})
		})
	})

	Describe("GET /api/analytics", func() {
		JustBeforeEach(func() {
			req := httptest.NewRequest("GET", "/api/analytics", nil)
			server.ServeHTTP(rec, req)
		})

		When("receipts exist", func() {
			BeforeEach(func() {
				db.receipts["r1"] = &Receipt{ID: "r1", Date: "2024-05-02", Total: fptr(12.00)}
			})

			It("returns the analytics document", func() {
				Expect(rec.Code).To(Equal(http.StatusOK))

				var result AnalyticsResult
				Expect(json.Unmarshal(rec.Body.Bytes(), &result)).To(Succeed())
				Expect(result.TotalReceipts).To(Equal(1))
				Expect(result.TotalSpent).To(Equal(12.00))
			})
		})

		When("the store is empty", func() {
			It("returns zeroes with empty arrays", func() {
				Expect(rec.Code).To(Equal(http.StatusOK))
				Expect(rec.Body.String()).To(ContainSubstring(`"topItems":[]`))
				Expect(rec.Body.String()).To(ContainSubstring(`"monthlySpending":[]`))
			})
		})

		When("the store read fails", func() {
			BeforeEach(func() {
				db.listErr = errors.New("database closed")
			})

			It("responds 500", func() {
				Expect(rec.Code).To(Equal(http.StatusInternalServerError))
			})
		})
	})

	Describe("GET /api/receipts", func() {
		BeforeEach(func() {
			db.receipts["r1"] = &Receipt{ID: "r1", StoreName: "Store 1", Date: "2024-05-02", Total: fptr(12.00)}
		})

		It("returns the receipt list", func() {
			req := httptest.NewRequest("GET", "/api/receipts", nil)
			server.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			var receipts []*Receipt
			Expect(json.Unmarshal(rec.Body.Bytes(), &receipts)).To(Succeed())
			Expect(receipts).To(HaveLen(1))
		})
	})

	Describe("GET /api/errors", func() {
		BeforeEach(func() {
			db.errorLog = append(db.errorLog, &ErrorRecord{ID: "e1", FilePath: "a.png", Error: "validation: missing required receipt fields: total"})
		})

		It("returns the error log", func() {
			req := httptest.NewRequest("GET", "/api/errors", nil)
			server.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			var records []*ErrorRecord
			Expect(json.Unmarshal(rec.Body.Bytes(), &records)).To(Succeed())
			Expect(records).To(HaveLen(1))
			Expect(records[0].Error).To(ContainSubstring("total"))
		})
	})

	Describe("POST /api/receipts", func() {
		newUpload := func(fieldName, filename string, data []byte) *http.Request {
			var buf bytes.Buffer
			writer := multipart.NewWriter(&buf)
			part, err := writer.CreateFormFile(fieldName, filename)
			Expect(err).NotTo(HaveOccurred())
			_, err = part.Write(data)
			Expect(err).NotTo(HaveOccurred())
			Expect(writer.Close()).NotTo(HaveOccurred())

			req := httptest.NewRequest("POST", "/api/receipts", &buf)
			req.Header.Set("Content-Type", writer.FormDataContentType())
			return req
		}

		When("a valid image is uploaded", func() {
			It("accepts the upload and ingests it", func() {
				server.ServeHTTP(rec, newUpload("file", "receipt.png", tinyPNG()))

				Expect(rec.Code).To(Equal(http.StatusAccepted))
				Expect(rec.Body.String()).To(ContainSubstring("path"))
				Expect(db.receipts).To(HaveLen(1))
			})
		})

		When("no file is provided", func() {
			It("responds 400", func() {
				server.ServeHTTP(rec, newUpload("wrong-field", "receipt.png", tinyPNG()))
				Expect(rec.Code).To(Equal(http.StatusBadRequest))
			})
		})

		When("the file is not a decodable image", func() {
			It("responds 400", func() {
				server.ServeHTTP(rec, newUpload("file", "junk.jpg", []byte("not an image")))
				Expect(rec.Code).To(Equal(http.StatusBadRequest))
			})
		})
	})

	Describe("basic auth", func() {
		BeforeEach(func() {
			server = NewServer(service, BasicAuth{Username: "admin", Password: "secret"})
		})

		It("rejects requests without credentials", func() {
			req := httptest.NewRequest("GET", "/api/analytics", nil)
			server.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})

		It("rejects requests with wrong credentials", func() {
			req := httptest.NewRequest("GET", "/api/analytics", nil)
			req.SetBasicAuth("admin", "wrong")
			server.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})

		It("accepts requests with correct credentials", func() {
			req := httptest.NewRequest("GET", "/api/analytics", nil)
			req.SetBasicAuth("admin", "secret")
			server.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusOK))
		})
	})
})
