package worker

import (
	"encoding/json"
	"log"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/nyaaypath/nyaaypath/internal/handler"
	"github.com/nyaaypath/nyaaypath/internal/models"
	"github.com/nyaaypath/nyaaypath/internal/stream"
)

// SubmittedWorker reacts to finished applications: it sends the
// confirmation email carrying the tracking id and offloads the
// attachments to hosted storage.
func (wk *Worker) SubmittedWorker() {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: submittedGroupID,
		Topic:   stream.TopicApplicationSubmitted,
	})

	if err != nil {
		log.Fatalf("Error creating consumer: %v", err)
	}
	for {
		event := consumer.Poll(100)
		switch e := event.(type) {
		case *kafka.Message:
			var msg handler.SubmittedMessage
			if err := json.Unmarshal(e.Value, &msg); err != nil {
				log.Printf("Skipping malformed submission message: %v", err)
				continue
			}

			wk.sendConfirmation(&msg)
			wk.offloadAttachments(&msg)
		case kafka.Error:
			log.Printf("Error: %v\n", e)
		default:
		}
	}
}

func (wk *Worker) sendConfirmation(msg *handler.SubmittedMessage) {
	if msg.Email == "" {
		return
	}

	emailData := wk.Helper.NewEmailData()
	emailData["Name"] = msg.Name
	emailData["Scheme"] = msg.Scheme
	emailData["TrackingID"] = msg.TrackingID

	if err := wk.Mailer.Send(msg.Email, emailData, "submission-received.tmpl"); err != nil {
		log.Printf("Error sending submission confirmation: %v", err)
	}
}

// offloadAttachments pushes each stored document to cloudinary so the
// dashboard can serve hosted URLs instead of multi-megabyte rows.
func (wk *Worker) offloadAttachments(msg *handler.SubmittedMessage) {
	app, found, err := wk.DB.Submission().GetOne(msg.ID)
	if err != nil || !found {
		log.Printf("Error loading application %s for offload: %v", msg.ID, err)
		return
	}

	for _, doc := range []struct {
		name string
		att  models.NullAttachment
	}{
		{"aadhar", app.AadhaarImage},
		{"pan", app.PanImage},
		{"income", app.IncomeCertificate},
		{"residential", app.ResidentialCertificate},
		{"family-photo", app.FamilyPhoto},
	} {
		if !doc.att.Valid || doc.att.Attachment.IsZero() {
			continue
		}

		publicID := msg.ID + "-" + doc.name
		if _, err := wk.FileUploader.UploadDataURI(wk.Ctx, doc.att.Attachment.Data, publicID); err != nil {
			log.Printf("Error offloading %s for application %s: %v", doc.name, msg.ID, err)
		}
	}
}
