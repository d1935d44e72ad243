package inmemory_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/uidsl/pkg/storage"
	"github.com/papercomputeco/uidsl/pkg/storage/inmemory"
	"github.com/papercomputeco/uidsl/pkg/storage/storagetest"
)

var _ storage.Driver = (*inmemory.Driver)(nil)

var _ = Describe("Driver", func() {
	storagetest.DescribeDriver(func(context.Context) storage.Driver {
		return inmemory.NewDriver()
	})

	It("counts stored revisions", func() {
		d := inmemory.NewDriver()
		_, err := d.Put(context.Background(), storagetest.NewRevision("asset", nil, 0, "x"))
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Count()).To(Equal(1))
	})
})
