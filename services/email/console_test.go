package emailsvc

import (
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/student"
	"github.com/trezcool/madrasa/fs"
)

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, core.NopLogger)

	days := 3
	now := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	data := struct {
		Date     time.Time
		Students []student.Snapshot
	}{
		Date: now,
		Students: []student.Snapshot{
			{
				Student:       student.Student{Name: "Amina", SubscriptionType: student.Monthly, SubscriptionFee: 4000},
				Status:        student.StatusWarning,
				DaysRemaining: &days,
			},
			{
				Student: student.Student{Name: "Yusuf", SubscriptionType: student.PerSession, SubscriptionFee: 1000},
				Status:  student.StatusExpired,
			},
		},
	}

	svc := NewConsoleServiceMock("Madrasa")
	svc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Name: "Admin", Address: "admin@test.cd"}},
			Subject:      "Subscriptions needing attention",
			TemplateName: "expiring_subscriptions",
			TemplateData: data,
		},
		&core.EmailMessage{Subject: "no recipients", BodyStr: "dropped"},
		&core.EmailMessage{To: []mail.Address{{Address: "admin@test.cd"}}, Subject: "plain", BodyStr: "hello"},
	)

	sent := svc.Messages()
	require.Len(t, sent, 2)

	digest := sent[0]
	assert.True(t, strings.Contains(digest.TextContent, "2024-01-05"))
	assert.True(t, strings.Contains(digest.TextContent, "Amina [monthly] warning: 3 day(s) left"))
	assert.True(t, strings.Contains(digest.TextContent, "Yusuf [per_session] expired: 0 session(s) left"))
	assert.True(t, strings.Contains(digest.TextContent, "Madrasa"))
	assert.True(t, strings.Contains(digest.HTMLContent, "<td>Amina</td>"))

	assert.Equal(t, "hello", sent[1].TextContent)
	assert.Empty(t, sent[1].HTMLContent)
}

func TestConsoleService_Wait(t *testing.T) {
	out := new(strings.Builder)
	svc := &consoleService{appName: "Madrasa", subjPrefix: "[Madrasa] ", out: out, logger: core.NopLogger}

	svc.SendMessages(
		&core.EmailMessage{To: []mail.Address{{Address: "admin@test.cd"}}, Subject: "first", BodyStr: "hello"},
		&core.EmailMessage{To: []mail.Address{{Address: "admin@test.cd"}}, Subject: "second", BodyStr: "hello"},
	)
	svc.Wait()

	assert.Contains(t, out.String(), "Subject: [Madrasa] first")
	assert.Contains(t, out.String(), "Subject: [Madrasa] second")
}
