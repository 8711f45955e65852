package billing

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/student"
)

const expiringTemplate = "expiring_subscriptions"

type (
	// Notifier emails the staff about subscriptions that need to be renewed.
	Notifier struct {
		students   *student.Service
		mailSvc    core.EmailService
		recipients []mail.Address
		clock      core.Clock
		logger     core.Logger
	}

	expiringDigest struct {
		Date     time.Time
		Students []student.Snapshot
	}
)

func NewNotifier(students *student.Service, mailSvc core.EmailService, recipients []mail.Address, clock core.Clock, logger core.Logger) *Notifier {
	return &Notifier{
		students:   students,
		mailSvc:    mailSvc,
		recipients: recipients,
		clock:      clock,
		logger:     logger,
	}
}

// SendExpiringDigest emails the list of subscriptions expiring within `days` days.
// Nothing is sent when the list is empty. It returns the number of listed students.
func (n *Notifier) SendExpiringDigest(ctx context.Context, days int) (int, error) {
	snaps, err := n.students.Expiring(ctx, days)
	if err != nil {
		return 0, errors.Wrap(err, "listing expiring subscriptions")
	}
	if len(snaps) == 0 {
		return 0, nil
	}
	if len(n.recipients) == 0 {
		n.logger.Warn("expiring subscriptions digest: no recipients configured", map[string]interface{}{"students": len(snaps)})
		return len(snaps), nil
	}

	n.mailSvc.SendMessages(&core.EmailMessage{
		To:           n.recipients,
		Subject:      "Subscriptions needing attention",
		TemplateName: expiringTemplate,
		TemplateData: expiringDigest{Date: n.clock.Now(), Students: snaps},
	})
	return len(snaps), nil
}
