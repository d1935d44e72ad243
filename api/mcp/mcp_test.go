package mcp_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/uidsl/api/mcp"
	"github.com/papercomputeco/uidsl/pkg/logger"
	"github.com/papercomputeco/uidsl/pkg/registry"
	"github.com/papercomputeco/uidsl/pkg/session"
	sessionmem "github.com/papercomputeco/uidsl/pkg/session/inmemory"
	"github.com/papercomputeco/uidsl/pkg/storage/inmemory"
	"github.com/papercomputeco/uidsl/pkg/studio"
)

var _ = Describe("MCP Server", func() {
	var st *studio.Studio

	BeforeEach(func() {
		var err error
		st, err = studio.New(studio.Config{
			Sessions:  session.NewManager(sessionmem.NewStore()),
			Revisions: inmemory.NewDriver(),
			Registry:  registry.NewHolder(&registry.Registry{Version: "1.0.0", Components: map[string]registry.ComponentSpec{}}),
			Logger:    logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("returns an error when studio is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Logger: logger.Nop()})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("studio is required"))
		})

		It("returns an error when logger is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Studio: st})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("logger is required"))
		})

		It("creates a server with valid config", func() {
			server, err := mcp.NewServer(mcp.Config{Studio: st, Logger: logger.Nop()})
			Expect(err).NotTo(HaveOccurred())
			Expect(server.Handler()).NotTo(BeNil())
		})

		It("creates an empty server in noop mode", func() {
			server, err := mcp.NewServer(mcp.Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(server.Handler()).NotTo(BeNil())
		})
	})
})
