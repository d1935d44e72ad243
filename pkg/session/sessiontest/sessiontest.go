// Package sessiontest holds the behavior every session.Store must share,
// as ginkgo specs that store test suites register.
package sessiontest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/uidsl/pkg/dsl"
	"github.com/papercomputeco/uidsl/pkg/session"
)

// DescribeStore registers the shared store specs. newStore is called before
// each spec and the store is closed after it.
func DescribeStore(newStore func(ctx context.Context) session.Store) {
	var (
		ctx   context.Context
		store session.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = nil
		store = newStore(ctx)
	})

	AfterEach(func() {
		if store != nil {
			Expect(store.Close()).To(Succeed())
		}
	})

	Describe("GetOrCreate", func() {
		It("creates an empty session on first use", func() {
			s, err := store.GetOrCreate(ctx, "s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(s.ID).To(Equal("s1"))
			Expect(s.Head).To(Equal(session.Base))
			Expect(s.CurrentDSL).To(BeNil())
			Expect(s.ConversationHistory).To(BeEmpty())
			Expect(s.PatchHistory).To(BeEmpty())
			Expect(s.CreatedAt.IsZero()).To(BeFalse())
		})

		It("returns the existing session on later calls", func() {
			_, err := store.GetOrCreate(ctx, "s1")
			Expect(err).NotTo(HaveOccurred())
			_, err = store.Update(ctx, "s1", func(s *session.ChatSession) error {
				s.CurrentCode = "code"
				return nil
			})
			Expect(err).NotTo(HaveOccurred())

			again, err := store.GetOrCreate(ctx, "s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(again.CurrentCode).To(Equal("code"))

			ids, err := store.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(Equal([]string{"s1"}))
		})
	})

	Describe("Get", func() {
		It("returns NotFoundError for unknown ids", func() {
			_, err := store.Get(ctx, "missing")
			var nf session.NotFoundError
			Expect(errors.As(err, &nf)).To(BeTrue())
			Expect(nf.ID).To(Equal("missing"))
		})

		It("hands out copies", func() {
			s, err := store.GetOrCreate(ctx, "s1")
			Expect(err).NotTo(HaveOccurred())
			s.CurrentCode = "mutated"
			s.AppendMessage(session.Message{Role: session.RoleUser, Content: "hi"})

			fresh, err := store.Get(ctx, "s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(fresh.CurrentCode).To(BeEmpty())
			Expect(fresh.ConversationHistory).To(BeEmpty())
		})
	})

	Describe("Update", func() {
		It("stores the result of fn", func() {
			_, err := store.GetOrCreate(ctx, "s1")
			Expect(err).NotTo(HaveOccurred())

			tree := &dsl.Node{ID: "root", Type: dsl.KindPage}
			updated, err := store.Update(ctx, "s1", func(s *session.ChatSession) error {
				code := "export default function GeneratedPage() {}\n"
				s.BindAsset("asset-1", "rev-1", tree, &code)
				return nil
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.CurrentRevisionID).To(Equal("rev-1"))

			got, err := store.Get(ctx, "s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.CurrentAssetID).To(Equal("asset-1"))
			Expect(got.CurrentDSL.ID).To(Equal("root"))
			Expect(got.UpdatedAt).To(BeTemporally(">=", got.CreatedAt))
		})

		It("stores nothing when fn fails", func() {
			_, err := store.GetOrCreate(ctx, "s1")
			Expect(err).NotTo(HaveOccurred())

			boom := errors.New("boom")
			_, err = store.Update(ctx, "s1", func(s *session.ChatSession) error {
				s.CurrentCode = "half"
				return boom
			})
			Expect(err).To(MatchError(boom))

			got, err := store.Get(ctx, "s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.CurrentCode).To(BeEmpty())
		})

		It("does not create sessions", func() {
			_, err := store.Update(ctx, "missing", func(*session.ChatSession) error { return nil })
			var nf session.NotFoundError
			Expect(errors.As(err, &nf)).To(BeTrue())
		})

		It("serializes concurrent writers", func() {
			_, err := store.GetOrCreate(ctx, "s1")
			Expect(err).NotTo(HaveOccurred())

			const writers = 20
			var wg sync.WaitGroup
			errs := make(chan error, writers)
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func(i int) {
					defer GinkgoRecover()
					defer wg.Done()
					_, err := store.Update(ctx, "s1", func(s *session.ChatSession) error {
						s.AppendMessage(session.Message{Role: session.RoleUser, Content: fmt.Sprint(i)})
						return nil
					})
					errs <- err
				}(i)
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				Expect(err).NotTo(HaveOccurred())
			}

			got, err := store.Get(ctx, "s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ConversationHistory).To(HaveLen(writers))
		})
	})

	Describe("Delete", func() {
		It("removes the session", func() {
			_, err := store.GetOrCreate(ctx, "s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(store.Delete(ctx, "s1")).To(Succeed())

			_, err = store.Get(ctx, "s1")
			Expect(err).To(HaveOccurred())
			Expect(store.Delete(ctx, "s1")).To(Succeed())
		})
	})

	Describe("List", func() {
		It("returns sorted ids", func() {
			for _, id := range []string{"b", "c", "a"} {
				_, err := store.GetOrCreate(ctx, id)
				Expect(err).NotTo(HaveOccurred())
			}
			ids, err := store.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(Equal([]string{"a", "b", "c"}))
		})
	})
}
