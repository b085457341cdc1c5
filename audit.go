package main

import (
	"time"

	"github.com/sirupsen/logrus"
)

// audit records an operator action in the audit table and the log. Failures
// to persist are logged but never surfaced to the caller; an audit write
// must not fail the action it describes.
func (app *App) audit(user, event, info string) {
	app.log.WithFields(logrus.Fields{
		"user":  user,
		"event": event,
		"info":  info,
	}).Info("audit")
	if err := app.db.SaveAudit(time.Now(), user, event, info); err != nil {
		app.log.WithError(err).Error("could not save audit event")
	}
}
