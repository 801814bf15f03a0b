package chroma_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	taleslogger "github.com/papercomputeco/tales/pkg/logger"
	"github.com/papercomputeco/tales/pkg/vector"
	"github.com/papercomputeco/tales/pkg/vector/chroma"
)

var _ = Describe("Driver", func() {
	var logger *slog.Logger

	BeforeEach(func() {
		logger = taleslogger.Nop()
	})

	Describe("NewDriver", func() {
		It("should return an error when URL is empty", func() {
			_, err := chroma.NewDriver(chroma.Config{URL: ""}, logger)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("chroma URL is required"))
		})

		It("should use default collection name when not specified", func() {
			var requested string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requested = r.URL.Path
				json.NewEncoder(w).Encode(map[string]string{"id": "c1", "name": "tales"})
			}))
			defer server.Close()

			_, err := chroma.NewDriver(chroma.Config{URL: server.URL}, logger)
			Expect(err).NotTo(HaveOccurred())
			Expect(requested).To(HaveSuffix("/collections/" + chroma.DefaultCollectionName))
		})

		It("should succeed after retrying when Chroma becomes available", func() {
			var attempts atomic.Int32

			// The GET request for the collection and the POST to create it
			// are separate requests. Each retry attempt may hit both endpoints.
			// We track total requests and fail the first few to simulate Chroma
			// still starting up.
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempt := attempts.Add(1)

				// Fail the first 4 requests (2 retry cycles: GET+POST each),
				// succeed on the 5th (the GET of the 3rd retry cycle).
				if attempt <= 4 {
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
					return
				}

				// Return a valid collection response
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]string{
					"id":   "test-collection-id",
					"name": "tales",
				})
			}))
			defer server.Close()

			driver, err := chroma.NewDriver(chroma.Config{
				URL:           server.URL,
				MaxRetries:    5,
				RetryDelay:    10 * time.Millisecond,
				MaxRetryDelay: 50 * time.Millisecond,
			}, logger)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver).NotTo(BeNil())
			Expect(attempts.Load()).To(BeNumerically(">=", int32(5)))
		})

		It("should return an error after exhausting all retries", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			}))
			defer server.Close()

			_, err := chroma.NewDriver(chroma.Config{
				URL:           server.URL,
				MaxRetries:    3,
				RetryDelay:    10 * time.Millisecond,
				MaxRetryDelay: 50 * time.Millisecond,
			}, logger)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("after 3 attempts"))
		})
	})

	Describe("Interface compliance", func() {
		It("should implement vector.Driver interface", func() {
			// Compile-time check that Driver implements vector.Driver
			var _ vector.Driver = (*chroma.Driver)(nil)
		})
	})

	Describe("Query", func() {
		var (
			server   *httptest.Server
			lastBody map[string]any
			driver   *chroma.Driver
		)

		BeforeEach(func() {
			lastBody = nil
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				if r.Method == http.MethodGet {
					json.NewEncoder(w).Encode(map[string]string{"id": "c1", "name": "tales"})
					return
				}

				Expect(json.NewDecoder(r.Body).Decode(&lastBody)).To(Succeed())
				json.NewEncoder(w).Encode(map[string]any{
					"ids":       [][]string{{"evt-1", "evt-2"}},
					"distances": [][]float32{{0.1, 0.4}},
					"documents": [][]string{{"a door creaks", "a crow calls"}},
					"metadatas": [][]map[string]any{{
						{"kind": "event", "location": "crypt"},
						{"kind": "event", "location": "crypt"},
					}},
				})
			}))

			var err error
			driver, err = chroma.NewDriver(chroma.Config{URL: server.URL}, logger)
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			server.Close()
		})

		It("should send a single equality without $and", func() {
			_, err := driver.Query(context.Background(), []float32{1, 0}, 2, vector.Filter{"kind": "lore"})
			Expect(err).NotTo(HaveOccurred())
			Expect(lastBody["where"]).To(Equal(map[string]any{"kind": map[string]any{"$eq": "lore"}}))
		})

		It("should combine several equalities with $and", func() {
			_, err := driver.Query(context.Background(), []float32{1, 0}, 2, vector.Filter{"kind": "event", "location": "crypt"})
			Expect(err).NotTo(HaveOccurred())
			Expect(lastBody["where"]).To(HaveKey("$and"))
			Expect(lastBody["where"].(map[string]any)["$and"]).To(HaveLen(2))
		})

		It("should map documents, tags and scores", func() {
			results, err := driver.Query(context.Background(), []float32{1, 0}, 2, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(lastBody).NotTo(HaveKey("where"))
			Expect(results).To(HaveLen(2))
			Expect(results[0].Text).To(Equal("a door creaks"))
			Expect(results[0].Tags).To(HaveKeyWithValue("location", "crypt"))
			Expect(results[0].Score).To(BeNumerically("~", 0.9, 0.001))
		})

		It("should skip the request for a zero topK", func() {
			results, err := driver.Query(context.Background(), []float32{1, 0}, 0, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
			Expect(lastBody).To(BeNil())
		})
	})
})
