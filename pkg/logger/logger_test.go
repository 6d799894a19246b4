package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"gridpulse.dev/telemetry/pkg/logger"
)

var _ = Describe("Logger", func() {
	Describe("New", func() {
		Context("with default config", func() {
			It("should create a non-nil logger", func() {
				log := logger.New(logger.DefaultConfig())
				Expect(log).NotTo(BeNil())
			})
		})

		Context("with nil config", func() {
			It("should create a non-nil logger with defaults", func() {
				log := logger.New(nil)
				Expect(log).NotTo(BeNil())
			})
		})

		Context("with a custom output", func() {
			It("should emit JSON records to the writer", func() {
				var buf bytes.Buffer
				log := logger.New(&logger.Config{
					Level:  slog.LevelInfo,
					Output: &buf,
				})

				log.Info("reading stored", "meter_id", "METER-1001")

				var record map[string]any
				Expect(json.Unmarshal(buf.Bytes(), &record)).To(Succeed())
				Expect(record["msg"]).To(Equal("reading stored"))
				Expect(record["meter_id"]).To(Equal("METER-1001"))
				Expect(record["level"]).To(Equal("INFO"))
			})
		})

		Context("with a level above the record", func() {
			It("should suppress the record", func() {
				var buf bytes.Buffer
				log := logger.New(&logger.Config{
					Level:  slog.LevelWarn,
					Output: &buf,
				})

				log.Info("below threshold")
				Expect(buf.Len()).To(BeZero())
			})
		})
	})

	Describe("NewWithLevel", func() {
		It("should create a logger at the requested level", func() {
			log := logger.NewWithLevel(slog.LevelDebug)
			Expect(log.Enabled(context.Background(), slog.LevelDebug)).To(BeTrue())
		})
	})

	Describe("ParseLevel", func() {
		DescribeTable("parsing level strings",
			func(input string, expected slog.Level) {
				Expect(logger.ParseLevel(input)).To(Equal(expected))
			},
			Entry("debug", "debug", slog.LevelDebug),
			Entry("info", "info", slog.LevelInfo),
			Entry("warn", "warn", slog.LevelWarn),
			Entry("warning", "warning", slog.LevelWarn),
			Entry("error", "error", slog.LevelError),
			Entry("unknown falls back to info", "trace", slog.LevelInfo),
			Entry("empty falls back to info", "", slog.LevelInfo),
		)
	})
})
