package worker

import (
	"context"

	"github.com/nyaaypath/nyaaypath/internal/file"
	"github.com/nyaaypath/nyaaypath/internal/helper"
	"github.com/nyaaypath/nyaaypath/internal/repository"
	"github.com/nyaaypath/nyaaypath/internal/smtp"
	"github.com/nyaaypath/nyaaypath/internal/stream"
)

type Worker struct {
	KafkaStream  *stream.KafkaStream
	DB           repository.Database
	Mailer       smtp.MailerInterface
	FileUploader file.Uploader
	Helper       *helper.HelperRepository
	Ctx          context.Context
}

const (
	// submittedGroupID is used for workers reacting to a citizen
	// finishing an application.
	submittedGroupID = "application-submitted-group"

	// reviewGroupID is used for workers reacting to an admin request
	// being approved or rejected.
	reviewGroupID = "admin-request-review-group"
)

// Workers typically need the database, the mailer and the kafka
// stream; worker-specific dependencies ride along on the struct.
func New(wk *Worker) *Worker {
	return &Worker{
		KafkaStream:  wk.KafkaStream,
		DB:           wk.DB,
		Mailer:       wk.Mailer,
		FileUploader: wk.FileUploader,
		Helper:       wk.Helper,
		Ctx:          wk.Ctx,
	}
}
