package versioncmder_test

import (
	"bytes"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	versioncmder "github.com/papercomputeco/uidsl/cmd/version"
	"github.com/papercomputeco/uidsl/pkg/utils"
)

var _ = Describe("NewVersionCmd", func() {
	var out *bytes.Buffer

	run := func(args ...string) error {
		cmd := versioncmder.NewVersionCmd()
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	BeforeEach(func() {
		out = &bytes.Buffer{}
	})

	It("prints the build information", func() {
		Expect(run()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Version: " + utils.Version))
		Expect(out.String()).To(ContainSubstring("Sha: " + utils.Sha))
	})

	It("prints JSON when asked", func() {
		Expect(run("--json")).To(Succeed())

		var info utils.BuildInfo
		Expect(json.Unmarshal(out.Bytes(), &info)).To(Succeed())
		Expect(info).To(Equal(utils.Info()))
	})

	It("rejects arguments", func() {
		Expect(run("extra")).To(HaveOccurred())
	})
})
