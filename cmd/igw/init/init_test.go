package initcmder_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/igw/cmd/igw/init"
	"github.com/papercomputeco/igw/pkg/config"
)

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Use).To(Equal("init"))
	})

	It("rejects any arguments", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Args(cmd, []string{})).To(Succeed())
		Expect(cmd.Args(cmd, []string{"extra"})).To(HaveOccurred())
	})

	It("has a --preset flag", func() {
		cmd := initcmder.NewInitCmd()
		f := cmd.Flags().Lookup("preset")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal(""))
	})
})

var _ = Describe("Init command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	run := func(args ...string) error {
		cmd := initcmder.NewInitCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "igw-init-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	It("creates a .igw directory with a default config.toml", func() {
		Expect(run()).To(Succeed())

		info, err := os.Stat(filepath.Join(tmpDir, ".igw"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())

		Expect(loadConfig(tmpDir)).To(Equal(config.NewDefaultConfig()))
	})

	It("keeps an existing config.toml when already initialized", func() {
		igwDir := filepath.Join(tmpDir, ".igw")
		Expect(os.MkdirAll(igwDir, 0o700)).To(Succeed())

		existing := "[client]\nmodel = \"mine\"\n"
		Expect(os.WriteFile(filepath.Join(igwDir, "config.toml"), []byte(existing), 0o600)).To(Succeed())

		Expect(run()).To(Succeed())

		data, err := os.ReadFile(filepath.Join(igwDir, "config.toml"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(existing))
	})

	It("does not touch other files in an existing .igw", func() {
		igwDir := filepath.Join(tmpDir, ".igw")
		Expect(os.MkdirAll(igwDir, 0o700)).To(Succeed())
		chat := filepath.Join(igwDir, "chat.json")
		Expect(os.WriteFile(chat, []byte(`{"messages":[]}`), 0o600)).To(Succeed())

		Expect(run()).To(Succeed())

		data, err := os.ReadFile(chat)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(`{"messages":[]}`))
	})

	Describe("--preset with provider presets", func() {
		DescribeTable("writes the preset's provider and model",
			func(preset, provider, model string) {
				Expect(run("--preset", preset)).To(Succeed())

				cfg := loadConfig(tmpDir)
				Expect(cfg.Version).To(Equal(config.CurrentV))
				Expect(cfg.Client.Provider).To(Equal(provider))
				Expect(cfg.Client.Model).To(Equal(model))
				Expect(cfg.Gateway.URL).To(Equal("http://localhost:8080"))
			},
			Entry("ollama", "ollama", "ollama", "llama3.2"),
			Entry("openai", "openai", "openai", "gpt-4o-mini"),
			Entry("anthropic", "anthropic", "anthropic", "claude-3-5-haiku-latest"),
			Entry("groq", "groq", "groq", "llama-3.3-70b-versatile"),
		)

		It("rejects unknown preset names without creating .igw", func() {
			err := run("--preset", "invalid-provider")
			Expect(err).To(MatchError(ContainSubstring("unknown preset")))

			_, err = os.Stat(filepath.Join(tmpDir, ".igw"))
			Expect(os.IsNotExist(err)).To(BeTrue())
		})

		It("overwrites the config when re-run with a different preset", func() {
			Expect(run("--preset", "openai")).To(Succeed())
			Expect(loadConfig(tmpDir).Client.Provider).To(Equal("openai"))

			Expect(run("--preset", "anthropic")).To(Succeed())
			Expect(loadConfig(tmpDir).Client.Provider).To(Equal("anthropic"))
		})
	})

	Describe("--preset with remote URL", func() {
		It("fetches and writes remote config.toml", func() {
			remoteCfg := `version = 0

[gateway]
url = "https://gw.example.com"
timeout = "1m"

[client]
provider = "groq"
model = "mixtral"

[stream]
terminator = "END"
`
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				fmt.Fprint(w, remoteCfg)
			}))
			defer server.Close()

			Expect(run("--preset", server.URL)).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.Gateway.URL).To(Equal("https://gw.example.com"))
			Expect(cfg.Gateway.Timeout).To(Equal("1m"))
			Expect(cfg.Client.Provider).To(Equal("groq"))
			Expect(cfg.Client.Model).To(Equal("mixtral"))
			Expect(cfg.Stream.Terminator).To(Equal("END"))
		})

		It("returns error for non-200 HTTP response", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer server.Close()

			err := run("--preset", server.URL)
			Expect(err).To(MatchError(ContainSubstring("HTTP 404")))
		})

		It("returns error for invalid TOML from URL", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "this is not valid toml [[[")
			}))
			defer server.Close()

			err := run("--preset", server.URL)
			Expect(err).To(MatchError(ContainSubstring("parsing")))
		})

		It("returns error for unreachable URL", func() {
			err := run("--preset", "http://127.0.0.1:1")
			Expect(err).To(MatchError(ContainSubstring("fetching remote config")))
		})
	})
})

// loadConfig reads and parses the config.toml from the .igw directory
// within the given base directory.
func loadConfig(baseDir string) *config.Config {
	data, err := os.ReadFile(filepath.Join(baseDir, ".igw", "config.toml"))
	ExpectWithOffset(1, err).NotTo(HaveOccurred())

	cfg := &config.Config{}
	ExpectWithOffset(1, toml.Unmarshal(data, cfg)).To(Succeed())
	return cfg
}
