package api_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"gridpulse.dev/telemetry/internal/api"
)

var _ = Describe("API Server", func() {
	Describe("NewServer", func() {
		It("should return error when config is nil", func() {
			server, err := api.NewServer(nil)
			Expect(err).To(HaveOccurred())
			Expect(server).To(BeNil())
		})

		It("should return error when logger is nil", func() {
			server, err := api.NewServer(&api.ServerConfig{Port: 8080})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("logger"))
			Expect(server).To(BeNil())
		})

		It("should return error when the ingestion service is nil", func() {
			server, err := api.NewServer(&api.ServerConfig{
				Logger: newTestLogger(),
				Port:   8080,
			})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("ingestion service"))
			Expect(server).To(BeNil())
		})

		It("should return error when the port is not positive", func() {
			ingest, engine, _ := newTestComponents()

			server, err := api.NewServer(&api.ServerConfig{
				Logger: newTestLogger(),
				Ingest: ingest,
				Engine: engine,
			})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("port"))
			Expect(server).To(BeNil())
		})
	})
})
