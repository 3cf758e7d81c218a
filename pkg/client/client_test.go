package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/igw/pkg/client"
	"github.com/papercomputeco/igw/pkg/llm"
)

// jsonHandler responds with status and body as application/json.
func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

var _ = Describe("Client", func() {
	var (
		gateway *httptest.Server
		mux     *http.ServeMux
		ctx     context.Context
	)

	BeforeEach(func() {
		mux = http.NewServeMux()
		gateway = httptest.NewServer(mux)
		ctx = context.Background()
	})

	AfterEach(func() {
		gateway.Close()
	})

	Describe("ListModels", func() {
		It("decodes the model list", func() {
			mux.HandleFunc("GET /llms", jsonHandler(http.StatusOK,
				`[{"provider":"ollama","models":[{"name":"llama2"}]}]`))

			models, err := client.New(gateway.URL).ListModels(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(models).To(HaveLen(1))
			Expect(models[0].Provider).To(Equal(llm.ProviderOllama))
			Expect(models[0].Models).To(ConsistOf(llm.Model{Name: "llama2"}))
		})

		It("returns an empty list", func() {
			mux.HandleFunc("GET /llms", jsonHandler(http.StatusOK, `[]`))

			models, err := client.New(gateway.URL).ListModels(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(models).To(BeEmpty())
		})

		It("tolerates a trailing slash on the base URL", func() {
			mux.HandleFunc("GET /llms", jsonHandler(http.StatusOK, `[]`))

			_, err := client.New(gateway.URL + "/").ListModels(ctx)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("authentication", func() {
		var authHeaders []string

		BeforeEach(func() {
			authHeaders = nil
			mux.HandleFunc("GET /llms", func(w http.ResponseWriter, r *http.Request) {
				authHeaders = append(authHeaders, r.Header.Get("Authorization"))
				jsonHandler(http.StatusOK, `[]`)(w, r)
			})
		})

		It("sends the bearer token when configured", func() {
			_, err := client.New(gateway.URL, client.WithToken("test-token")).ListModels(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(authHeaders).To(Equal([]string{"Bearer test-token"}))
		})

		It("sends no Authorization header without a token", func() {
			_, err := client.New(gateway.URL).ListModels(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(authHeaders).To(Equal([]string{""}))
		})
	})

	Describe("request headers", func() {
		It("sets a request ID and user agent", func() {
			var got http.Header
			mux.HandleFunc("GET /llms", func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Clone()
				jsonHandler(http.StatusOK, `[]`)(w, r)
			})

			_, err := client.New(gateway.URL, client.WithUserAgent("igw-test/1.0")).ListModels(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Get(client.RequestIDHeader)).To(HaveLen(36))
			Expect(got.Get("User-Agent")).To(Equal("igw-test/1.0"))
			Expect(got.Get("Accept")).To(Equal("application/json"))
		})
	})

	Describe("error mapping", func() {
		DescribeTable("maps status codes onto sentinels",
			func(status int, body string, sentinel error, message string) {
				mux.HandleFunc("GET /llms", jsonHandler(status, body))

				_, err := client.New(gateway.URL).ListModels(ctx)
				Expect(err).To(MatchError(sentinel))

				var apiErr *client.APIError
				Expect(errors.As(err, &apiErr)).To(BeTrue())
				Expect(apiErr.StatusCode).To(Equal(status))
				Expect(apiErr.Message).To(Equal(message))
			},
			Entry("401", http.StatusUnauthorized, `{"error":"Invalid token"}`, client.ErrUnauthorized, "Invalid token"),
			Entry("400", http.StatusBadRequest, `{"error":"Invalid provider"}`, client.ErrBadRequest, "Invalid provider"),
			Entry("500", http.StatusInternalServerError, `{"error":"Internal server error occurred"}`, client.ErrInternal, "Internal server error occurred"),
			Entry("other", http.StatusTeapot, `{"error":"short and stout"}`, client.ErrUnexpectedStatus, "short and stout"),
			Entry("raw body", http.StatusBadGateway, "upstream down\n", client.ErrUnexpectedStatus, "upstream down"),
			Entry("empty body", http.StatusServiceUnavailable, "", client.ErrUnexpectedStatus, "Service Unavailable"),
		)

		It("formats the message like the gateway reports it", func() {
			mux.HandleFunc("GET /llms", jsonHandler(http.StatusUnauthorized, `{"error":"Invalid token"}`))

			_, err := client.New(gateway.URL).ListModels(ctx)
			Expect(err).To(MatchError("unauthorized: Invalid token"))
			Expect(errors.Is(err, client.ErrUnexpectedStatus)).To(BeFalse())
		})

		It("wraps transport failures", func() {
			gateway.Close()
			_, err := client.New(gateway.URL).ListModels(ctx)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("sending request"))
		})

		It("reports malformed bodies", func() {
			mux.HandleFunc("GET /llms", jsonHandler(http.StatusOK, `{"nope"`))

			_, err := client.New(gateway.URL).ListModels(ctx)
			Expect(err).To(MatchError(ContainSubstring("decoding response")))
		})
	})

	Describe("ListModelsByProvider", func() {
		It("queries the provider path", func() {
			mux.HandleFunc("GET /llms/ollama", jsonHandler(http.StatusOK,
				`{"provider":"ollama","models":[{"name":"llama2"}]}`))

			models, err := client.New(gateway.URL).ListModelsByProvider(ctx, llm.ProviderOllama)
			Expect(err).NotTo(HaveOccurred())
			Expect(models.Provider).To(Equal(llm.ProviderOllama))
			Expect(models.Models).To(HaveLen(1))
			Expect(models.Models[0].Name).To(Equal("llama2"))
		})
	})

	Describe("GenerateContent", func() {
		It("posts the conversation and decodes the response", func() {
			var req llm.GenerateRequest
			var contentType string
			mux.HandleFunc("POST /llms/ollama/generate", func(w http.ResponseWriter, r *http.Request) {
				contentType = r.Header.Get("Content-Type")
				Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
				jsonHandler(http.StatusOK,
					`{"provider":"ollama","response":{"role":"assistant","model":"llama2","content":"Hellloooo"}}`)(w, r)
			})

			messages := []llm.Message{llm.NewMessage(llm.RoleUser, "Hello")}
			resp, err := client.New(gateway.URL).GenerateContent(ctx, llm.ProviderOllama, "llama2", messages)
			Expect(err).NotTo(HaveOccurred())

			Expect(contentType).To(Equal("application/json"))
			Expect(req.Model).To(Equal("llama2"))
			Expect(req.Messages).To(Equal(messages))
			Expect(req.Stream).To(BeFalse())

			Expect(resp.Provider).To(Equal(llm.ProviderOllama))
			Expect(resp.Response.Role).To(Equal(llm.RoleAssistant))
			Expect(resp.Response.Model).To(Equal("llama2"))
			Expect(resp.Response.Content).To(Equal("Hellloooo"))
		})

		It("honours the timeout", func() {
			mux.HandleFunc("POST /llms/ollama/generate", func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			})

			c := client.New(gateway.URL, client.WithTimeout(50*time.Millisecond))
			_, err := c.GenerateContent(ctx, llm.ProviderOllama, "llama2", nil)
			Expect(err).To(MatchError(context.DeadlineExceeded))
		})
	})

	Describe("HealthCheck", func() {
		It("is healthy on 200", func() {
			mux.HandleFunc("GET /health", jsonHandler(http.StatusOK, ""))

			ok, err := client.New(gateway.URL).HealthCheck(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})

		It("treats any 2xx status as healthy", func() {
			mux.HandleFunc("GET /health", jsonHandler(http.StatusNoContent, ""))

			ok, err := client.New(gateway.URL).HealthCheck(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})

		It("is unhealthy on 503", func() {
			mux.HandleFunc("GET /health", jsonHandler(http.StatusServiceUnavailable, ""))

			ok, err := client.New(gateway.URL).HealthCheck(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("returns an error when the gateway is unreachable", func() {
			gateway.Close()
			ok, err := client.New(gateway.URL).HealthCheck(ctx)
			Expect(err).To(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})
})
