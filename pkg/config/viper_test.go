package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/tales/pkg/config"
)

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "viper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("returns viper with defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(config.FromViper(v)).To(Equal(config.NewDefaultConfig()))
	})

	It("reads config file values over defaults", func() {
		data := `[narrator]
provider = "anthropic"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("narrator.provider")).To(Equal("anthropic"))
		Expect(v.GetString("narrator.timeout")).To(Equal("60s"))
	})

	It("respects environment variables with TALES_ prefix", func() {
		GinkgoT().Setenv("TALES_NARRATOR_PROVIDER", "openai")
		GinkgoT().Setenv("TALES_EMBEDDING_DIMENSIONS", "1024")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg := config.FromViper(v)
		Expect(cfg.Narrator.Provider).To(Equal("openai"))
		Expect(cfg.Embedding.Dimensions).To(Equal(uint(1024)))
	})

	It("env vars take precedence over config file values", func() {
		data := `[trace]
driver = "postgres"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())
		GinkgoT().Setenv("TALES_TRACE_DRIVER", "none")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("trace.driver")).To(Equal("none"))
	})
})

var _ = Describe("BindFlags", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "bindflag-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("binds cobra flags to viper keys via registry", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &listen)
		Expect(cmd.Flags().Set("listen", ":7777")).To(Succeed())

		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagAPIListen})

		Expect(v.GetString("api.listen")).To(Equal(":7777"))
	})

	It("falls through to config when flag not set", func() {
		data := `[api]
listen = ":5555"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &listen)
		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagAPIListen})

		Expect(v.GetString("api.listen")).To(Equal(":5555"))
	})

	It("skips bindings for nonexistent registry keys", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		config.BindRegisteredFlags(v, cmd, config.Flags, []string{"nonexistent", config.FlagModel})

		Expect(v.GetString("narrator.model")).To(Equal("llama3.2"))
	})

	It("AddStringFlag pulls name, shorthand, and description from FlagSet", func() {
		cmd := &cobra.Command{Use: "test"}
		var name string
		config.AddStringFlag(cmd, config.Flags, config.FlagPlayerName, &name)

		f := cmd.Flags().Lookup("name")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("n"))
		Expect(f.Usage).To(Equal("Player character name"))
		Expect(f.DefValue).To(Equal("Adventurer"))
	})

	It("AddUintFlag takes its default from the config defaults", func() {
		cmd := &cobra.Command{Use: "test"}
		var retries uint
		config.AddUintFlag(cmd, config.Flags, config.FlagRetries, &retries)

		f := cmd.Flags().Lookup("retries")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal("2"))
		Expect(retries).To(Equal(uint(2)))
	})

	It("ignores unknown registry keys when adding flags", func() {
		cmd := &cobra.Command{Use: "test"}
		var s string
		config.AddStringFlag(cmd, config.FlagSet{}, config.FlagModel, &s)
		Expect(cmd.Flags().HasFlags()).To(BeFalse())
	})
})
