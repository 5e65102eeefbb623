package bill

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	newBill := func(id string, createdAt time.Time) *Bill {
		return &Bill{
			ID:        id,
			Merchant:  "罗森便利店",
			Amount:    2550,
			DateText:  "10月25日 14:30",
			Type:      "auto-extracted",
			Category:  CategoryUnsorted,
			Source:    SourceRules,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		}
	}

	Describe("SaveBill", func() {
		var (
			bill *Bill
			err  error
		)

		BeforeEach(func() {
			bill = newBill("test-id", time.Now())
		})

		JustBeforeEach(func() {
			err = db.SaveBill(bill)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should make the bill retrievable", func() {
				got, getErr := db.GetBill("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(got.Merchant).To(Equal("罗森便利店"))
				Expect(got.Amount).To(Equal(2550))
			})
		})

		When("saving the same ID twice", func() {
			JustBeforeEach(func() {
				bill.Merchant = "全家便利店"
				err = db.SaveBill(bill)
			})

			It("should overwrite the record", func() {
				got, getErr := db.GetBill("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(got.Merchant).To(Equal("全家便利店"))
			})
		})
	})

	Describe("GetBill", func() {
		When("the bill does not exist", func() {
			It("returns the error", func() {
				_, err := db.GetBill("missing")
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("ListBills", func() {
		When("the database is empty", func() {
			It("should return an empty slice", func() {
				bills, err := db.ListBills()
				Expect(err).NotTo(HaveOccurred())
				Expect(bills).To(BeEmpty())
			})
		})

		When("several bills exist", func() {
			BeforeEach(func() {
				base := time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)
				Expect(db.SaveBill(newBill("older", base))).To(Succeed())
				Expect(db.SaveBill(newBill("newest", base.Add(2*time.Hour)))).To(Succeed())
				Expect(db.SaveBill(newBill("middle", base.Add(time.Hour)))).To(Succeed())
			})

			It("should list newest first", func() {
				bills, err := db.ListBills()
				Expect(err).NotTo(HaveOccurred())
				Expect(bills).To(HaveLen(3))
				Expect(bills[0].ID).To(Equal("newest"))
				Expect(bills[1].ID).To(Equal("middle"))
				Expect(bills[2].ID).To(Equal("older"))
			})
		})
	})

	Describe("DeleteBill", func() {
		BeforeEach(func() {
			Expect(db.SaveBill(newBill("test-id", time.Now()))).To(Succeed())
		})

		When("the bill exists", func() {
			It("should remove it", func() {
				Expect(db.DeleteBill("test-id")).To(Succeed())
				_, err := db.GetBill("test-id")
				Expect(err).To(HaveOccurred())
			})
		})

		When("the bill does not exist", func() {
			It("returns the error", func() {
				Expect(db.DeleteBill("missing")).To(HaveOccurred())
			})
		})
	})
})
