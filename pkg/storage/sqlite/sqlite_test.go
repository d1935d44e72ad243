package sqlite_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/uidsl/pkg/storage"
	"github.com/papercomputeco/uidsl/pkg/storage/sqlite"
	"github.com/papercomputeco/uidsl/pkg/storage/storagetest"
)

var _ storage.Driver = (*sqlite.Driver)(nil)

var _ = Describe("Driver", func() {
	Context("in memory", func() {
		storagetest.DescribeDriver(func(ctx context.Context) storage.Driver {
			d, err := sqlite.NewDriver(ctx, ":memory:")
			Expect(err).NotTo(HaveOccurred())
			return d
		})
	})

	Context("on disk", func() {
		storagetest.DescribeDriver(func(ctx context.Context) storage.Driver {
			d, err := sqlite.NewDriver(ctx, filepath.Join(GinkgoT().TempDir(), "revisions.db"))
			Expect(err).NotTo(HaveOccurred())
			return d
		})
	})

	It("persists across reopen", func() {
		ctx := context.Background()
		dbPath := filepath.Join(GinkgoT().TempDir(), "revisions.db")

		d, err := sqlite.NewDriver(ctx, dbPath)
		Expect(err).NotTo(HaveOccurred())
		rev := storagetest.NewRevision("asset", nil, 0, "kept")
		_, err = d.Put(ctx, rev)
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Close()).To(Succeed())

		_, err = os.Stat(dbPath)
		Expect(err).NotTo(HaveOccurred())

		reopened, err := sqlite.NewDriver(ctx, dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer reopened.Close()

		got, err := reopened.Get(ctx, rev.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.ContentHash).To(Equal(rev.ContentHash))
	})
})
