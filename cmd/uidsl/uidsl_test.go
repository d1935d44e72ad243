package uidslcmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	uidslcmder "github.com/papercomputeco/uidsl/cmd/uidsl"
)

var _ = Describe("NewUIDSLCmd", func() {
	It("creates the root command", func() {
		cmd := uidslcmder.NewUIDSLCmd()
		Expect(cmd.Use).To(Equal("uidsl"))
	})

	It("registers every subcommand", func() {
		cmd := uidslcmder.NewUIDSLCmd()
		names := make([]string, 0, len(cmd.Commands()))
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements(
			"serve", "validate", "patch", "codegen", "revisions",
			"checkout", "status", "init", "config", "version",
		))
	})

	It("exposes the global flags to subcommands", func() {
		cmd := uidslcmder.NewUIDSLCmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())

		validate, _, err := cmd.Find([]string{"validate", "page"})
		Expect(err).NotTo(HaveOccurred())
		Expect(validate.InheritedFlags().Lookup("config-dir")).NotTo(BeNil())
	})
})
