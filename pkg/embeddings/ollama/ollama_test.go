package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/tales/pkg/embeddings/ollama"
	"github.com/papercomputeco/tales/pkg/vector"
)

var _ = Describe("Embedder", func() {
	var (
		server  *httptest.Server
		request map[string]any
		status  int
		vectors [][]float32
	)

	BeforeEach(func() {
		request = nil
		status = http.StatusOK
		vectors = [][]float32{{0.5, 0.25, 0.125}}

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/api/embed"))
			Expect(json.NewDecoder(r.Body).Decode(&request)).To(Succeed())

			if status != http.StatusOK {
				w.WriteHeader(status)
				json.NewEncoder(w).Encode(map[string]string{"error": "model not found"})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"model": request["model"], "embeddings": vectors})
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("sends the model and input and returns the first vector", func() {
		e, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL, Model: "nomic-embed-text"})
		Expect(err).NotTo(HaveOccurred())

		got, err := e.Embed(context.Background(), "a rusted gate")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal([]float32{0.5, 0.25, 0.125}))
		Expect(request).To(HaveKeyWithValue("model", "nomic-embed-text"))
		Expect(request).To(HaveKeyWithValue("input", "a rusted gate"))
	})

	It("defaults the model", func() {
		e, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		_, err = e.Embed(context.Background(), "x")
		Expect(err).NotTo(HaveOccurred())
		Expect(request).To(HaveKeyWithValue("model", ollama.DefaultEmbeddingModel))
	})

	It("wraps server errors in ErrEmbedding", func() {
		status = http.StatusNotFound
		e, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		_, err = e.Embed(context.Background(), "x")
		Expect(err).To(MatchError(vector.ErrEmbedding))
	})

	It("fails when no embeddings come back", func() {
		vectors = [][]float32{}
		e, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		_, err = e.Embed(context.Background(), "x")
		Expect(err).To(MatchError(ContainSubstring("no embeddings returned")))
	})
})
