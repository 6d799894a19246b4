package mq

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	amqp "github.com/rabbitmq/amqp091-go"

	clientmq "gridpulse.dev/telemetry/pkg/mq"
)

var _ = Describe("MQ Client E2E", func() {
	var (
		client    *clientmq.Client
		queueName string
	)

	BeforeEach(func() {
		queueName = "readings-" + time.Now().Format("20060102-150405.000")
	})

	AfterEach(func() {
		if client != nil {
			_ = client.Close()
			client = nil
		}
	})

	Describe("publishing", func() {
		BeforeEach(func() {
			client = clientmq.New(queueName, rabbitmq.URL, testLogger)
			time.Sleep(2 * time.Second)
		})

		It("should publish a confirmed message", func() {
			err := client.Push(context.Background(), []byte(`{"meterId":"METER-1"}`))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should publish a burst of messages", func() {
			for i := 0; i < 20; i++ {
				err := client.Push(context.Background(), []byte(`{"seq":true}`))
				Expect(err).NotTo(HaveOccurred())
			}
		})
	})

	Describe("round trip", func() {
		It("should deliver published messages to a consumer", func() {
			client = clientmq.New(queueName, rabbitmq.URL, testLogger)
			time.Sleep(2 * time.Second)

			payload := []byte(`{"vehicleId":"VEH-1","soc":55}`)
			Expect(client.Push(context.Background(), payload)).To(Succeed())

			deliveries, err := client.Consume()
			Expect(err).NotTo(HaveOccurred())

			var delivery amqp.Delivery
			Eventually(deliveries, 10*time.Second).Should(Receive(&delivery))
			Expect(delivery.Body).To(Equal(payload))
			Expect(delivery.Ack(false)).To(Succeed())
		})
	})
})
