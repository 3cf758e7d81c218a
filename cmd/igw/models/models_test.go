package modelscmder_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	igwcmder "github.com/papercomputeco/igw/cmd/igw"
	modelscmder "github.com/papercomputeco/igw/cmd/igw/models"
)

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

var _ = Describe("NewModelsCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := modelscmder.NewModelsCmd()
		Expect(cmd.Use).To(Equal("models"))
	})

	It("has --provider, --all and --workers flags", func() {
		cmd := modelscmder.NewModelsCmd()
		Expect(cmd.Flags().Lookup("provider")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("all")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("workers")).NotTo(BeNil())
	})
})

var _ = Describe("Models command execution", func() {
	var (
		tmpDir  string
		gateway *httptest.Server
		mux     *http.ServeMux
		out     *bytes.Buffer
		pathsMu sync.Mutex
		paths   []string
	)

	recorded := func() []string {
		pathsMu.Lock()
		defer pathsMu.Unlock()
		return append([]string(nil), paths...)
	}

	run := func(args ...string) error {
		cmd := igwcmder.NewIgwCmd()
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs(append([]string{"models", "--config-dir", tmpDir, "--url", gateway.URL}, args...))
		return cmd.Execute()
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "igw-models-test-*")
		Expect(err).NotTo(HaveOccurred())

		paths = nil
		mux = http.NewServeMux()
		gateway = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pathsMu.Lock()
			paths = append(paths, r.URL.Path)
			pathsMu.Unlock()
			mux.ServeHTTP(w, r)
		}))
		out = &bytes.Buffer{}
	})

	AfterEach(func() {
		gateway.Close()
		os.RemoveAll(tmpDir)
	})

	It("lists every provider's models", func() {
		mux.HandleFunc("GET /llms", jsonHandler(http.StatusOK,
			`[{"provider":"ollama","models":[{"name":"llama3.2"}]},{"provider":"openai","models":[{"name":"gpt-4o"}]}]`))

		Expect(run()).To(Succeed())
		Expect(recorded()).To(Equal([]string{"/llms"}))
		Expect(out.String()).To(ContainSubstring("ollama"))
		Expect(out.String()).To(ContainSubstring("llama3.2"))
		Expect(out.String()).To(ContainSubstring("gpt-4o"))
	})

	It("reports an empty gateway", func() {
		mux.HandleFunc("GET /llms", jsonHandler(http.StatusOK, `[]`))

		Expect(run()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("No models available"))
	})

	It("queries a single provider with --provider", func() {
		mux.HandleFunc("GET /llms/groq", jsonHandler(http.StatusOK,
			`{"provider":"groq","models":[{"name":"llama-3.3-70b-versatile"}]}`))

		Expect(run("--provider", "groq")).To(Succeed())
		Expect(recorded()).To(Equal([]string{"/llms/groq"}))
		Expect(out.String()).To(ContainSubstring("llama-3.3-70b-versatile"))
	})

	It("rejects an unknown provider", func() {
		err := run("--provider", "nope")
		Expect(err).To(HaveOccurred())
		Expect(recorded()).To(BeEmpty())
	})

	It("surfaces gateway errors", func() {
		mux.HandleFunc("GET /llms", jsonHandler(http.StatusInternalServerError, `{"error":"boom"}`))

		err := run()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("boom"))
	})

	It("probes every provider with --all and keeps going past failures", func() {
		mux.HandleFunc("GET /llms/{provider}", func(w http.ResponseWriter, r *http.Request) {
			p := r.PathValue("provider")
			if p == "cohere" {
				jsonHandler(http.StatusUnauthorized, `{"error":"bad key"}`)(w, r)
				return
			}
			jsonHandler(http.StatusOK, `{"provider":"`+p+`","models":[{"name":"`+p+`-model"}]}`)(w, r)
		})

		Expect(run("--all", "--workers", "2")).To(Succeed())
		Expect(recorded()).To(HaveLen(7))
		Expect(out.String()).To(ContainSubstring("anthropic-model"))
		Expect(out.String()).To(ContainSubstring("ollama-model"))
		Expect(out.String()).To(ContainSubstring("bad key"))
	})

	It("refuses --all together with --provider", func() {
		Expect(run("--all", "--provider", "openai")).To(HaveOccurred())
		Expect(recorded()).To(BeEmpty())
	})
})
