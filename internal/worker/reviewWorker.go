package worker

import (
	"encoding/json"
	"log"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/nyaaypath/nyaaypath/internal/stream"
)

type reviewMessage struct {
	RequestID string `json:"request_id"`
	Level     string `json:"level"`
	Email     string `json:"email"`
	State     string `json:"state"`
	District  string `json:"district"`
}

// ReviewWorker notifies applicants for admin access of the verdict on
// their request.
func (wk *Worker) ReviewWorker() {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: reviewGroupID,
		Topic:   stream.TopicAdminRequestApproved,
	})

	if err != nil {
		log.Fatalf("Error creating consumer: %v", err)
	}

	if err := consumer.SubscribeTopics([]string{
		stream.TopicAdminRequestApproved,
		stream.TopicAdminRequestRejected,
	}, nil); err != nil {
		log.Fatalf("Error subscribing to review topics: %v", err)
	}

	for {
		event := consumer.Poll(100)
		switch e := event.(type) {
		case *kafka.Message:
			var msg reviewMessage
			if err := json.Unmarshal(e.Value, &msg); err != nil {
				log.Printf("Skipping malformed review message: %v", err)
				continue
			}

			template := "admin-request-rejected.tmpl"
			if e.TopicPartition.Topic != nil && *e.TopicPartition.Topic == stream.TopicAdminRequestApproved {
				template = "admin-request-approved.tmpl"
			}

			emailData := wk.Helper.NewEmailData()
			emailData["Level"] = msg.Level
			emailData["State"] = msg.State
			emailData["District"] = msg.District

			if err := wk.Mailer.Send(msg.Email, emailData, template); err != nil {
				log.Printf("Error sending review notification: %v", err)
			}
		case kafka.Error:
			log.Printf("Error: %v\n", e)
		default:
		}
	}
}
