package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/igw/pkg/dotdir"
	"github.com/papercomputeco/igw/pkg/llm"
)

var _ = Describe("Manager chat transcript", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-chat-test-*")
		Expect(err).NotTo(HaveOccurred())
		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("LoadChat", func() {
		It("returns nil when no transcript exists", func() {
			conv, err := m.LoadChat(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(conv).To(BeNil())
		})

		It("returns error for invalid JSON", func() {
			Expect(os.WriteFile(filepath.Join(tmpDir, "chat.json"), []byte("{nope"), 0o600)).To(Succeed())

			_, err := m.LoadChat(tmpDir)
			Expect(err).To(MatchError(ContainSubstring("parsing chat transcript")))
		})
	})

	Describe("SaveChat", func() {
		It("returns error for nil conversation", func() {
			Expect(m.SaveChat(nil, tmpDir)).NotTo(Succeed())
		})

		It("writes the transcript with private permissions", func() {
			conv := &llm.Conversation{Provider: llm.ProviderOllama, Model: "llama2"}
			Expect(m.SaveChat(conv, tmpDir)).To(Succeed())

			info, err := os.Stat(filepath.Join(tmpDir, "chat.json"))
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))
		})
	})

	Describe("round-trip", func() {
		It("saves and loads the transcript", func() {
			conv := &llm.Conversation{Provider: llm.ProviderGroq, Model: "mixtral"}
			conv.Append(
				llm.NewMessage(llm.RoleSystem, "be brief"),
				llm.NewMessage(llm.RoleUser, "hi"),
				llm.NewMessage(llm.RoleAssistant, "hello"),
			)
			Expect(m.SaveChat(conv, tmpDir)).To(Succeed())

			loaded, err := m.LoadChat(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Provider).To(Equal(llm.ProviderGroq))
			Expect(loaded.Model).To(Equal("mixtral"))
			Expect(loaded.Messages).To(Equal(conv.Messages))
			Expect(loaded.UpdatedAt.Equal(conv.UpdatedAt)).To(BeTrue())
		})
	})

	Describe("ClearChat", func() {
		It("removes the transcript", func() {
			Expect(m.SaveChat(&llm.Conversation{}, tmpDir)).To(Succeed())
			Expect(m.ClearChat(tmpDir)).To(Succeed())

			conv, err := m.LoadChat(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(conv).To(BeNil())
		})

		It("succeeds when nothing was saved", func() {
			Expect(m.ClearChat(tmpDir)).To(Succeed())
		})
	})
})
