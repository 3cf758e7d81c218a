package chatcmder_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	igwcmder "github.com/papercomputeco/igw/cmd/igw"
	chatcmder "github.com/papercomputeco/igw/cmd/igw/chat"
	"github.com/papercomputeco/igw/pkg/dotdir"
	"github.com/papercomputeco/igw/pkg/llm"
)

var _ = Describe("NewChatCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := chatcmder.NewChatCmd()
		Expect(cmd.Use).To(Equal("chat"))
	})

	It("has --resume and --system flags", func() {
		cmd := chatcmder.NewChatCmd()
		Expect(cmd.Flags().Lookup("resume")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("system")).NotTo(BeNil())
	})
})

var _ = Describe("Chat command execution", func() {
	var (
		tmpDir   string
		gateway  *httptest.Server
		out      *bytes.Buffer
		mu       sync.Mutex
		requests []llm.GenerateRequest
		replies  []string
	)

	run := func(input string, args ...string) error {
		cmd := igwcmder.NewIgwCmd()
		cmd.SetIn(strings.NewReader(input))
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs(append([]string{"chat", "--config-dir", tmpDir, "--url", gateway.URL, "-m", "llama3.2"}, args...))
		return cmd.Execute()
	}

	received := func() []llm.GenerateRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]llm.GenerateRequest(nil), requests...)
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "igw-chat-test-*")
		Expect(err).NotTo(HaveOccurred())

		requests = nil
		replies = []string{"Hi there", "Fine"}
		out = &bytes.Buffer{}

		gateway = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req llm.GenerateRequest
			_ = json.NewDecoder(r.Body).Decode(&req)

			mu.Lock()
			n := len(requests)
			requests = append(requests, req)
			mu.Unlock()

			if n >= len(replies) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"no more replies"}`))
				return
			}

			w.Header().Set("Content-Type", "text/event-stream")
			w.WriteHeader(http.StatusOK)
			for _, word := range strings.SplitAfter(replies[n], " ") {
				_, _ = w.Write([]byte(`data: {"role":"assistant","content":"` + word + `"}` + "\n\n"))
				w.(http.Flusher).Flush()
			}
			_, _ = w.Write([]byte("data: [DONE]\n\n"))
		}))
	})

	AfterEach(func() {
		gateway.Close()
		os.RemoveAll(tmpDir)
	})

	It("streams replies and carries the history into the next turn", func() {
		Expect(run("hello\nhow are you?\n/exit\n")).To(Succeed())

		reqs := received()
		Expect(reqs).To(HaveLen(2))
		Expect(reqs[0].Stream).To(BeTrue())
		Expect(reqs[0].Messages).To(Equal([]llm.Message{
			llm.NewMessage(llm.RoleUser, "hello"),
		}))
		Expect(reqs[1].Messages).To(Equal([]llm.Message{
			llm.NewMessage(llm.RoleUser, "hello"),
			llm.NewMessage(llm.RoleAssistant, "Hi there"),
			llm.NewMessage(llm.RoleUser, "how are you?"),
		}))
		Expect(out.String()).To(ContainSubstring("Hi there"))
	})

	It("saves the transcript after each turn", func() {
		Expect(run("hello\n", "--system", "be brief")).To(Succeed())

		conv, err := dotdir.NewManager().LoadChat(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(conv).NotTo(BeNil())
		Expect(conv.Provider).To(Equal(llm.ProviderOllama))
		Expect(conv.Model).To(Equal("llama3.2"))
		Expect(conv.Messages).To(Equal([]llm.Message{
			llm.NewMessage(llm.RoleSystem, "be brief"),
			llm.NewMessage(llm.RoleUser, "hello"),
			llm.NewMessage(llm.RoleAssistant, "Hi there"),
		}))
	})

	It("resumes a saved conversation with --resume", func() {
		saved := &llm.Conversation{Provider: llm.ProviderOllama, Model: "llama3.2"}
		saved.Append(
			llm.NewMessage(llm.RoleUser, "earlier"),
			llm.NewMessage(llm.RoleAssistant, "reply"),
		)
		Expect(dotdir.NewManager().SaveChat(saved, tmpDir)).To(Succeed())

		Expect(run("again\n", "--resume")).To(Succeed())

		reqs := received()
		Expect(reqs).To(HaveLen(1))
		Expect(reqs[0].Messages).To(HaveLen(3))
		Expect(reqs[0].Messages[0].Content).To(Equal("earlier"))
		Expect(out.String()).To(ContainSubstring("Resuming conversation"))
		Expect(out.String()).To(ContainSubstring("reply"))
	})

	It("starts fresh without --resume", func() {
		saved := &llm.Conversation{}
		saved.Append(llm.NewMessage(llm.RoleUser, "earlier"))
		Expect(dotdir.NewManager().SaveChat(saved, tmpDir)).To(Succeed())

		Expect(run("again\n")).To(Succeed())
		Expect(received()[0].Messages).To(HaveLen(1))
	})

	It("drops the user message of a failed turn", func() {
		replies = []string{"only one"}

		Expect(run("first\nsecond\nthird\n")).To(Succeed())

		reqs := received()
		Expect(reqs).To(HaveLen(3))
		// The failed "second" turn is not part of the third request.
		Expect(reqs[2].Messages).To(Equal([]llm.Message{
			llm.NewMessage(llm.RoleUser, "first"),
			llm.NewMessage(llm.RoleAssistant, "only one"),
			llm.NewMessage(llm.RoleUser, "third"),
		}))
		Expect(out.String()).To(ContainSubstring("no more replies"))
	})

	It("resets the conversation with /reset", func() {
		Expect(run("hello\n/reset\nagain\n")).To(Succeed())

		reqs := received()
		Expect(reqs).To(HaveLen(2))
		Expect(reqs[1].Messages).To(Equal([]llm.Message{
			llm.NewMessage(llm.RoleUser, "again"),
		}))
	})

	It("ignores blank lines", func() {
		Expect(run("\n   \n/exit\n")).To(Succeed())
		Expect(received()).To(BeEmpty())
	})
})
