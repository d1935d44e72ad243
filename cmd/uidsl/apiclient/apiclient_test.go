package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/uidsl/api"
	"github.com/papercomputeco/uidsl/cmd/uidsl/apiclient"
	"github.com/papercomputeco/uidsl/pkg/dsl"
	"github.com/papercomputeco/uidsl/pkg/revision"
)

var _ = Describe("Client", func() {
	var (
		server *httptest.Server
		client *apiclient.Client
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()

		root := &revision.Revision{ID: "r1", AssetID: "a1", DSL: &dsl.Node{ID: "root", Type: "page"}}
		parent := "r1"
		child := &revision.Revision{ID: "r2", AssetID: "a1", ParentID: &parent, DSL: &dsl.Node{ID: "root", Type: "page"}}

		mux := http.NewServeMux()
		mux.HandleFunc("/revisions/r2", func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(child)
		})
		mux.HandleFunc("/revisions/r2/history", func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(api.HistoryResponse{
				Revisions: []*revision.Revision{root, child},
				HeadID:    "r2",
				Depth:     1,
			})
		})
		mux.HandleFunc("/assets/a1/revisions", func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(api.AssetRevisionsResponse{
				AssetID:   "a1",
				Revisions: []*revision.Revision{root, child},
				Heads:     []string{"r2"},
			})
		})
		mux.HandleFunc("/revisions/missing", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "revision not found: missing"})
		})

		server = httptest.NewServer(mux)
		DeferCleanup(server.Close)
		client = apiclient.New(server.URL + "/")
	})

	It("fetches a revision", func() {
		rev, err := client.Revision(ctx, "r2")
		Expect(err).NotTo(HaveOccurred())
		Expect(rev.AssetID).To(Equal("a1"))
		Expect(*rev.ParentID).To(Equal("r1"))
	})

	It("fetches history", func() {
		history, err := client.History(ctx, "r2")
		Expect(err).NotTo(HaveOccurred())
		Expect(history.Depth).To(Equal(1))
		Expect(history.Revisions[0].ID).To(Equal("r1"))
	})

	It("fetches asset revisions", func() {
		resp, err := client.AssetRevisions(ctx, "a1")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Heads).To(ConsistOf("r2"))
		Expect(resp.Revisions).To(HaveLen(2))
	})

	It("returns a StatusError with the API message", func() {
		_, err := client.Revision(ctx, "missing")

		var statusErr *apiclient.StatusError
		Expect(errors.As(err, &statusErr)).To(BeTrue())
		Expect(statusErr.StatusCode).To(Equal(http.StatusNotFound))
		Expect(statusErr.Message).To(ContainSubstring("revision not found"))
	})
})
