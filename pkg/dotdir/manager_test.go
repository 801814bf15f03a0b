package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/tales/pkg/dotdir"
)

var _ = Describe("Manager", func() {
	var (
		tmpDir string
		m      *dotdir.Manager
	)

	BeforeEach(func() {
		var err error
		// EvalSymlinks keeps paths comparable with filepath.Abs on macOS.
		tmpDir, err = filepath.EvalSymlinks(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
		GinkgoT().Setenv(dotdir.EnvDir, "")

		m = dotdir.NewManager()
	})

	chdir := func(dir string) {
		origDir, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(dir)).To(Succeed())
		DeferCleanup(func() { _ = os.Chdir(origDir) })
	}

	Describe("Target", func() {
		It("creates an override directory that does not exist yet", func() {
			dir := filepath.Join(tmpDir, "world")
			Expect(m.Target(dir)).To(Equal(dir))
			Expect(dir).To(BeADirectory())
		})

		It("prefers the override over TALES_DIR and a local .tales", func() {
			Expect(os.Mkdir(filepath.Join(tmpDir, ".tales"), 0o755)).To(Succeed())
			chdir(tmpDir)
			GinkgoT().Setenv(dotdir.EnvDir, filepath.Join(tmpDir, "env"))

			override := filepath.Join(tmpDir, "override")
			Expect(m.Target(override)).To(Equal(override))
		})

		It("uses TALES_DIR over a local .tales", func() {
			Expect(os.Mkdir(filepath.Join(tmpDir, ".tales"), 0o755)).To(Succeed())
			chdir(tmpDir)
			env := filepath.Join(tmpDir, "env")
			GinkgoT().Setenv(dotdir.EnvDir, env)

			Expect(m.Target("")).To(Equal(env))
			Expect(env).To(BeADirectory())
		})

		It("uses the local .tales when present", func() {
			local := filepath.Join(tmpDir, ".tales")
			Expect(os.Mkdir(local, 0o755)).To(Succeed())
			chdir(tmpDir)

			Expect(m.Target("")).To(Equal(local))
		})

		It("falls back to ~/.tales", func() {
			empty := filepath.Join(tmpDir, "empty")
			Expect(os.Mkdir(empty, 0o755)).To(Succeed())
			chdir(empty)
			GinkgoT().Setenv("HOME", empty)

			Expect(m.Target("")).To(Equal(filepath.Join(empty, ".tales")))
			Expect(filepath.Join(empty, ".tales")).To(BeADirectory())
		})
	})

	Describe("Path", func() {
		It("joins the name onto the tales directory", func() {
			dir := filepath.Join(tmpDir, "world")
			Expect(m.Path(dir, "memory.db")).To(Equal(filepath.Join(dir, "memory.db")))
			Expect(dir).To(BeADirectory())
		})
	})
})
