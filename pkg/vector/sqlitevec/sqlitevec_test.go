package sqlitevec_test

import (
	"context"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	taleslogger "github.com/papercomputeco/tales/pkg/logger"
	"github.com/papercomputeco/tales/pkg/vector"
	"github.com/papercomputeco/tales/pkg/vector/sqlitevec"
)

var _ = Describe("Driver", func() {
	var logger *slog.Logger

	BeforeEach(func() {
		logger = taleslogger.Nop()
	})

	newDriver := func() *sqlitevec.Driver {
		driver, err := sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     ":memory:",
			Dimensions: 4,
		}, logger)
		Expect(err).NotTo(HaveOccurred())
		return driver
	}

	Describe("NewDriver", func() {
		It("should return an error when DBPath is empty", func() {
			_, err := sqlitevec.NewDriver(sqlitevec.Config{DBPath: ""}, logger)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("database path is required"))
		})

		It("should create a driver with an in-memory database", func() {
			driver := newDriver()
			Expect(driver).NotTo(BeNil())
			Expect(driver.Close()).To(Succeed())
		})

		It("should error when dimension not specified", func() {
			_, err := sqlitevec.NewDriver(sqlitevec.Config{
				DBPath: ":memory:",
			}, logger)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Interface compliance", func() {
		It("should implement vector.Driver interface", func() {
			var _ vector.Driver = (*sqlitevec.Driver)(nil)
		})
	})

	Describe("Add", func() {
		var driver *sqlitevec.Driver

		BeforeEach(func() {
			driver = newDriver()
		})

		AfterEach(func() {
			Expect(driver.Close()).To(Succeed())
		})

		It("should do nothing when given empty docs", func() {
			Expect(driver.Add(context.Background(), []vector.Document{})).To(Succeed())
		})

		It("should store text and tags", func() {
			err := driver.Add(context.Background(), []vector.Document{{
				ID:        "lore_001",
				Text:      "the ancient mage Eldrin sealed the gate",
				Tags:      map[string]string{"kind": "lore"},
				Embedding: []float32{0.1, 0.2, 0.3, 0.4},
			}})
			Expect(err).NotTo(HaveOccurred())

			retrieved, err := driver.Get(context.Background(), []string{"lore_001"})
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved).To(HaveLen(1))
			Expect(retrieved[0].Text).To(Equal("the ancient mage Eldrin sealed the gate"))
			Expect(retrieved[0].Tags).To(HaveKeyWithValue("kind", "lore"))
		})

		It("should reject a duplicate ID and keep the original", func() {
			docs := []vector.Document{{ID: "doc-1", Text: "first", Embedding: []float32{1, 0, 0, 0}}}
			Expect(driver.Add(context.Background(), docs)).To(Succeed())

			err := driver.Add(context.Background(), []vector.Document{{ID: "doc-1", Text: "second", Embedding: []float32{0, 1, 0, 0}}})
			Expect(err).To(MatchError(vector.ErrDuplicateID))

			retrieved, err := driver.Get(context.Background(), []string{"doc-1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved[0].Text).To(Equal("first"))
		})

		It("should reject embeddings of the wrong size", func() {
			err := driver.Add(context.Background(), []vector.Document{{ID: "short", Embedding: []float32{1, 0}}})
			Expect(err).To(MatchError(vector.ErrDimensions))
		})
	})

	Describe("Query", func() {
		var driver *sqlitevec.Driver

		BeforeEach(func() {
			driver = newDriver()

			docs := []vector.Document{
				{ID: "doc-1", Text: "north", Tags: map[string]string{"kind": "event", "location": "gate"}, Embedding: []float32{1, 0, 0, 0}},
				{ID: "doc-2", Text: "east", Tags: map[string]string{"kind": "event", "location": "ford"}, Embedding: []float32{0, 1, 0, 0}},
				{ID: "doc-3", Text: "north east", Tags: map[string]string{"kind": "lore"}, Embedding: []float32{0.7, 0.7, 0, 0}},
				{ID: "doc-4", Text: "up", Tags: map[string]string{"kind": "event", "location": "gate"}, Embedding: []float32{0, 0, 1, 0}},
			}
			Expect(driver.Add(context.Background(), docs)).To(Succeed())
		})

		AfterEach(func() {
			Expect(driver.Close()).To(Succeed())
		})

		It("should return the closest documents first", func() {
			results, err := driver.Query(context.Background(), []float32{1, 0.1, 0, 0}, 3, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			Expect(results[0].ID).To(Equal("doc-1"))
			Expect(results[0].Text).To(Equal("north"))
			Expect(results[1].ID).To(Equal("doc-3"))

			for i := 1; i < len(results); i++ {
				Expect(results[i-1].Score).To(BeNumerically(">=", results[i].Score))
			}
		})

		It("should return nothing for a zero topK", func() {
			results, err := driver.Query(context.Background(), []float32{1, 0, 0, 0}, 0, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("should narrow by every tag in the filter", func() {
			results, err := driver.Query(context.Background(), []float32{0, 1, 0, 0}, 5,
				vector.Filter{"kind": "event", "location": "gate"})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			for _, r := range results {
				Expect(r.Tags).To(HaveKeyWithValue("location", "gate"))
			}
		})

		It("should return an empty result when the filter matches nothing", func() {
			results, err := driver.Query(context.Background(), []float32{1, 0, 0, 0}, 5, vector.Filter{"location": "crypt"})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})
	})

	Describe("Get", func() {
		var driver *sqlitevec.Driver

		BeforeEach(func() {
			driver = newDriver()
			docs := []vector.Document{
				{ID: "doc-1", Embedding: []float32{0.1, 0.2, 0.3, 0.4}},
				{ID: "doc-2", Embedding: []float32{0.5, 0.6, 0.7, 0.8}},
			}
			Expect(driver.Add(context.Background(), docs)).To(Succeed())
		})

		AfterEach(func() {
			Expect(driver.Close()).To(Succeed())
		})

		It("should return nil for empty IDs", func() {
			docs, err := driver.Get(context.Background(), []string{})
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(BeNil())
		})

		It("should return embeddings with retrieved documents", func() {
			docs, err := driver.Get(context.Background(), []string{"doc-1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))
			Expect(docs[0].Embedding).To(HaveLen(4))
			Expect(docs[0].Embedding[0]).To(BeNumerically("~", 0.1, 0.001))
			Expect(docs[0].Embedding[3]).To(BeNumerically("~", 0.4, 0.001))
		})

		It("should skip non-existent IDs", func() {
			docs, err := driver.Get(context.Background(), []string{"doc-1", "nonexistent"})
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))
			Expect(docs[0].ID).To(Equal("doc-1"))
		})
	})
})
