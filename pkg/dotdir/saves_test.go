package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/tales/pkg/dotdir"
	"github.com/papercomputeco/tales/pkg/game"
)

var _ = Describe("dotdir.Manager saves", func() {
	var (
		tmpDir string
		m      *dotdir.Manager
		snap   game.Snapshot
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-saves-*")
		Expect(err).NotTo(HaveOccurred())
		m = dotdir.NewManager()

		sess := game.NewSession("sess-1", game.NewPlayer("Orla"), game.Location{
			Name: "Cave | Spiders | Treasure",
			Tags: []string{"cave", "spiders", "treasure"},
		})
		sess.Transition(game.PhaseCombat)
		snap = sess.Snapshot()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("LoadGame", func() {
		It("returns nil when the slot is empty", func() {
			loaded, err := m.LoadGame("slot1", tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(BeNil())
		})

		It("returns an error for a corrupt save", func() {
			Expect(os.MkdirAll(filepath.Join(tmpDir, "saves"), 0o755)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(tmpDir, "saves", "bad.json"), []byte("{nope"), 0o600)).To(Succeed())

			_, err := m.LoadGame("bad", tmpDir)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring(`parsing save "bad"`))
		})
	})

	Describe("SaveGame", func() {
		It("round trips a snapshot", func() {
			Expect(m.SaveGame("slot1", snap, tmpDir)).To(Succeed())
			Expect(filepath.Join(tmpDir, "saves", "slot1.json")).To(BeAnExistingFile())

			loaded, err := m.LoadGame("slot1", tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(*loaded).To(Equal(snap))

			restored, err := game.Restore(*loaded)
			Expect(err).NotTo(HaveOccurred())
			Expect(restored.Phase()).To(Equal(game.PhaseCombat))
			Expect(restored.Log()).To(ConsistOf("combat started in location Cave | Spiders | Treasure"))
		})

		It("uses the default slot for an empty name", func() {
			Expect(m.SaveGame("", snap, tmpDir)).To(Succeed())
			Expect(filepath.Join(tmpDir, "saves", dotdir.DefaultSlot+".json")).To(BeAnExistingFile())
		})

		It("overwrites an existing slot", func() {
			Expect(m.SaveGame("slot1", snap, tmpDir)).To(Succeed())
			snap.Player.HP = 3
			Expect(m.SaveGame("slot1", snap, tmpDir)).To(Succeed())

			loaded, err := m.LoadGame("slot1", tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Player.HP).To(Equal(3))
		})

		It("rejects slot names that escape the saves directory", func() {
			for _, slot := range []string{"../config", "a/b", "with space", "."} {
				err := m.SaveGame(slot, snap, tmpDir)
				Expect(err).To(MatchError(dotdir.ErrInvalidSlot), slot)
			}
			Expect(filepath.Join(tmpDir, "config.json")).NotTo(BeAnExistingFile())
		})
	})

	Describe("ListSaves", func() {
		It("returns an empty list before anything is saved", func() {
			Expect(m.ListSaves(tmpDir)).To(BeEmpty())
		})

		It("lists occupied slots in order", func() {
			Expect(m.SaveGame("zeta", snap, tmpDir)).To(Succeed())
			Expect(m.SaveGame("alpha", snap, tmpDir)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(tmpDir, "saves", "notes.txt"), []byte("x"), 0o600)).To(Succeed())

			Expect(m.ListSaves(tmpDir)).To(Equal([]string{"alpha", "zeta"}))
		})
	})

	Describe("DeleteSave", func() {
		It("removes a slot", func() {
			Expect(m.SaveGame("slot1", snap, tmpDir)).To(Succeed())
			Expect(m.DeleteSave("slot1", tmpDir)).To(Succeed())

			loaded, err := m.LoadGame("slot1", tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(BeNil())
		})

		It("returns nil if the slot is already empty", func() {
			Expect(m.DeleteSave("slot1", tmpDir)).To(Succeed())
		})
	})
})
