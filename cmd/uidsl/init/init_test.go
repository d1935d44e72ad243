package initcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/uidsl/cmd/uidsl/init"
	"github.com/papercomputeco/uidsl/pkg/config"
)

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Use).To(Equal("init"))
	})

	It("accepts zero arguments", func() {
		cmd := initcmder.NewInitCmd()
		err := cmd.Args(cmd, []string{})
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects any arguments", func() {
		cmd := initcmder.NewInitCmd()
		err := cmd.Args(cmd, []string{"extra"})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Init command execution", func() {
	var (
		tmpDir  string
		origDir string
		out     *bytes.Buffer
	)

	execute := func() error {
		cmd := initcmder.NewInitCmd()
		cmd.SetOut(out)
		cmd.SetArgs([]string{})
		return cmd.Execute()
	}

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		out = &bytes.Buffer{}

		var err error
		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
	})

	It("creates a .uidsl directory in the current directory", func() {
		Expect(execute()).To(Succeed())

		info, err := os.Stat(filepath.Join(tmpDir, ".uidsl"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	It("creates a config.toml with default values", func() {
		Expect(execute()).To(Succeed())

		var cfg config.Config
		_, err := toml.DecodeFile(filepath.Join(tmpDir, ".uidsl", "config.toml"), &cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.API.Listen).To(Equal(":8081"))
		Expect(cfg.Storage.Provider).To(Equal("memory"))
		Expect(cfg.Events.Topic).To(Equal("uidsl.revisions"))
	})

	It("does not overwrite existing contents when already initialized", func() {
		dir := filepath.Join(tmpDir, ".uidsl")
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte("version = 0\n"), 0o600)).To(Succeed())

		Expect(execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Already initialized"))

		data, err := os.ReadFile(filepath.Join(dir, "config.toml"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("version = 0\n"))
	})
})
