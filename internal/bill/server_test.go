package bill

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/wenqian/autobill/internal/extract"
)

var _ = Describe("Server", func() {
	var (
		db         *mockDB
		recognizer *mockRecognizer
		server     *Server
		recorder   *httptest.ResponseRecorder
		request    *http.Request
		now        time.Time
	)

	BeforeEach(func() {
		db = newMockDB()
		recognizer = &mockRecognizer{}
		now = time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)

		engine, err := extract.New(extract.DefaultRules())
		Expect(err).NotTo(HaveOccurred())

		service := NewServiceWithDeps(db, recognizer, engine, nil, &seqIDGenerator{}, &fixedTimeSource{t: now})
		server = NewServer(service, BasicAuth{})
		recorder = httptest.NewRecorder()
	})

	JustBeforeEach(func() {
		server.ServeHTTP(recorder, request)
	})

	Describe("GET /api/bills", func() {
		BeforeEach(func() {
			Expect(db.SaveBill(&Bill{ID: "bill-1", Merchant: "罗森便利店", Amount: 2550, CreatedAt: now})).To(Succeed())
			request = httptest.NewRequest("GET", "/api/bills", nil)
		})

		It("should return the bills as JSON", func() {
			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(recorder.Header().Get("Content-Type")).To(Equal("application/json"))

			var bills []*Bill
			Expect(json.Unmarshal(recorder.Body.Bytes(), &bills)).To(Succeed())
			Expect(bills).To(HaveLen(1))
			Expect(bills[0].Merchant).To(Equal("罗森便利店"))
		})

		It("should set CORS headers", func() {
			Expect(recorder.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
		})
	})

	Describe("GET /api/bills/{id}", func() {
		When("the bill exists", func() {
			BeforeEach(func() {
				Expect(db.SaveBill(&Bill{ID: "bill-1", Merchant: "全家便利店", Amount: 1200})).To(Succeed())
				request = httptest.NewRequest("GET", "/api/bills/bill-1", nil)
			})

			It("should return the bill", func() {
				Expect(recorder.Code).To(Equal(http.StatusOK))

				var bill Bill
				Expect(json.Unmarshal(recorder.Body.Bytes(), &bill)).To(Succeed())
				Expect(bill.Merchant).To(Equal("全家便利店"))
				Expect(bill.Amount).To(Equal(1200))
			})
		})

		When("the bill does not exist", func() {
			BeforeEach(func() {
				request = httptest.NewRequest("GET", "/api/bills/missing", nil)
			})

			It("should return 404", func() {
				Expect(recorder.Code).To(Equal(http.StatusNotFound))
			})
		})
	})

	Describe("DELETE /api/bills/{id}", func() {
		When("the bill exists", func() {
			BeforeEach(func() {
				Expect(db.SaveBill(&Bill{ID: "bill-1"})).To(Succeed())
				request = httptest.NewRequest("DELETE", "/api/bills/bill-1", nil)
			})

			It("should return 204 and remove the bill", func() {
				Expect(recorder.Code).To(Equal(http.StatusNoContent))
				Expect(db.bills).To(BeEmpty())
			})
		})

		When("the bill does not exist", func() {
			BeforeEach(func() {
				request = httptest.NewRequest("DELETE", "/api/bills/missing", nil)
			})

			It("should return 404", func() {
				Expect(recorder.Code).To(Equal(http.StatusNotFound))
			})
		})
	})

	Describe("GET /api/summary", func() {
		BeforeEach(func() {
			Expect(db.SaveBill(&Bill{ID: "bill-1", Amount: 2550, CreatedAt: now})).To(Succeed())
			Expect(db.SaveBill(&Bill{ID: "bill-2", Amount: 1000, CreatedAt: now})).To(Succeed())
			request = httptest.NewRequest("GET", "/api/summary", nil)
		})

		It("should aggregate totals per day", func() {
			Expect(recorder.Code).To(Equal(http.StatusOK))

			var summary []DaySummary
			Expect(json.Unmarshal(recorder.Body.Bytes(), &summary)).To(Succeed())
			Expect(summary).To(HaveLen(1))
			Expect(summary[0].Date).To(Equal("2024-03-08"))
			Expect(summary[0].Total).To(Equal(3550))
			Expect(summary[0].Count).To(Equal(2))
		})

		When("the days parameter is not a positive integer", func() {
			BeforeEach(func() {
				request = httptest.NewRequest("GET", "/api/summary?days=banana", nil)
			})

			It("should return 400", func() {
				Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			})
		})
	})

	Describe("GET /api/export", func() {
		BeforeEach(func() {
			Expect(db.SaveBill(&Bill{ID: "bill-1", Merchant: "罗森便利店", Amount: 2550, CreatedAt: now})).To(Succeed())
			request = httptest.NewRequest("GET", "/api/export", nil)
		})

		It("should stream an XLSX attachment", func() {
			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(recorder.Header().Get("Content-Type")).To(Equal("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"))
			Expect(recorder.Header().Get("Content-Disposition")).To(ContainSubstring("attachment"))
			Expect(recorder.Body.Len()).To(BeNumerically(">", 0))
		})
	})

	Describe("POST /api/bills/scan", func() {
		var uploadBody *bytes.Buffer
		var uploadType string

		BeforeEach(func() {
			recognizer.text = "10月25日 14:30\n罗森便利店\n25.50"

			uploadBody = &bytes.Buffer{}
			writer := multipart.NewWriter(uploadBody)
			part, err := writer.CreateFormFile("file", "screenshot.png")
			Expect(err).NotTo(HaveOccurred())
			_, err = part.Write(testPNG())
			Expect(err).NotTo(HaveOccurred())
			Expect(writer.Close()).To(Succeed())
			uploadType = writer.FormDataContentType()

			request = httptest.NewRequest("POST", "/api/bills/scan", uploadBody)
			request.Header.Set("Content-Type", uploadType)
		})

		It("should capture and return the bills", func() {
			Expect(recorder.Code).To(Equal(http.StatusCreated))

			var bills []*Bill
			Expect(json.Unmarshal(recorder.Body.Bytes(), &bills)).To(Succeed())
			Expect(bills).To(HaveLen(1))
			Expect(bills[0].Merchant).To(Equal("罗森便利店"))
			Expect(bills[0].Amount).To(Equal(2550))
			Expect(db.bills).To(HaveLen(1))
		})

		When("no file is provided", func() {
			BeforeEach(func() {
				empty := &bytes.Buffer{}
				writer := multipart.NewWriter(empty)
				Expect(writer.Close()).To(Succeed())

				request = httptest.NewRequest("POST", "/api/bills/scan", empty)
				request.Header.Set("Content-Type", writer.FormDataContentType())
			})

			It("should return 400", func() {
				Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			})
		})
	})

	Describe("basic auth", func() {
		BeforeEach(func() {
			engine, err := extract.New(extract.DefaultRules())
			Expect(err).NotTo(HaveOccurred())

			service := NewServiceWithDeps(db, recognizer, engine, nil, &seqIDGenerator{}, &fixedTimeSource{t: now})
			server = NewServer(service, BasicAuth{Username: "user", Password: "secret"})
		})

		When("no credentials are sent", func() {
			BeforeEach(func() {
				request = httptest.NewRequest("GET", "/api/bills", nil)
			})

			It("should return 401 with a challenge", func() {
				Expect(recorder.Code).To(Equal(http.StatusUnauthorized))
				Expect(recorder.Header().Get("WWW-Authenticate")).To(ContainSubstring("Basic"))
			})
		})

		When("wrong credentials are sent", func() {
			BeforeEach(func() {
				request = httptest.NewRequest("GET", "/api/bills", nil)
				request.SetBasicAuth("user", "wrong")
			})

			It("should return 401", func() {
				Expect(recorder.Code).To(Equal(http.StatusUnauthorized))
			})
		})

		When("valid credentials are sent", func() {
			BeforeEach(func() {
				request = httptest.NewRequest("GET", "/api/bills", nil)
				request.SetBasicAuth("user", "secret")
			})

			It("should serve the request", func() {
				Expect(recorder.Code).To(Equal(http.StatusOK))
			})
		})
	})
})
