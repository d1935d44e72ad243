package eventstream_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/uidsl/pkg/dsl"
	"github.com/papercomputeco/uidsl/pkg/eventstream"
	"github.com/papercomputeco/uidsl/pkg/patch"
	"github.com/papercomputeco/uidsl/pkg/revision"
)

var _ = Describe("Event", func() {
	var rev *revision.Revision

	BeforeEach(func() {
		p, err := patch.New("cta", patch.SetCopy{Value: "Go"})
		Expect(err).NotTo(HaveOccurred())

		rev, err = revision.New(revision.Params{
			AssetID:  "asset-1",
			ParentID: "rev-0",
			DSL:      &dsl.Node{ID: "root", Type: dsl.KindPage},
			Patches:  []patch.Patch{p},
			Metadata: map[string]any{
				revision.MetaAction:  "patch",
				revision.MetaSession: "session-1",
			},
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("describes the revision", func() {
		now := time.Unix(1735689600, 0).UTC()
		event := eventstream.NewRevisionCreatedEvent(rev, now)

		Expect(event.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		Expect(event.EventType).To(Equal(eventstream.EventTypeRevisionCreated))
		Expect(event.EventID).To(HavePrefix("evt_"))
		Expect(event.EmittedAt).To(Equal(now))
		Expect(event.Source).To(Equal(eventstream.EventSource{SessionID: "session-1", Action: "patch"}))
		Expect(event.Revision.RevisionID).To(Equal(rev.ID))
		Expect(*event.Revision.ParentRevisionID).To(Equal("rev-0"))
		Expect(event.Revision.ContentHash).To(Equal(rev.ContentHash))
		Expect(event.Revision.Ops).To(Equal([]string{"setCopy"}))
	})

	It("marshals with expected top-level keys", func() {
		payload, err := json.Marshal(eventstream.NewRevisionCreatedEvent(rev, time.Now()))
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("source"))
		Expect(got).To(HaveKey("revision"))
		Expect(got).NotTo(HaveKey("dslJson"))
	})

	It("defines stable event constants", func() {
		Expect(eventstream.SchemaVersionV1).To(BeNumerically(">", 0))
		Expect(eventstream.EventTypeRevisionCreated).To(Equal("uidsl.revision.created"))
	})

	It("provides ErrNilRevisionEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilRevisionEvent).To(MatchError("nil revision event"))
	})
})
