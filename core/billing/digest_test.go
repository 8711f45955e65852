package billing

import (
	"context"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/student"
	appfs "github.com/trezcool/madrasa/fs"
	"github.com/trezcool/madrasa/services/email"
	"github.com/trezcool/madrasa/tests"
)

func init() {
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, core.NopLogger)
}

func TestNotifier_SendExpiringDigest(t *testing.T) {
	staff := []mail.Address{{Name: "Office", Address: "office@madrasa.test"}}

	tests := []struct {
		name       string
		recipients []mail.Address
		students   []student.Student
		wantCount  int
		wantSent   bool
	}{
		{
			name:       "nothing expiring",
			recipients: staff,
			students: []student.Student{
				{Name: "Amina", SubscriptionEndDate: null.TimeFrom(testutil.Date(2024, 3, 1))},
			},
		},
		{
			name:       "expiring subscriptions",
			recipients: staff,
			students: []student.Student{
				{Name: "Amina", SubscriptionEndDate: null.TimeFrom(testutil.Date(2024, 3, 1))},
				{Name: "Bilal", SubscriptionType: student.PerSession, SessionsRemaining: 1},
				{Name: "Chidi", SubscriptionEndDate: null.TimeFrom(testutil.Date(2024, 1, 2))},
			},
			wantCount: 2,
			wantSent:  true,
		},
		{
			name: "no recipients",
			students: []student.Student{
				{Name: "Chidi", SubscriptionEndDate: null.TimeFrom(testutil.Date(2024, 1, 2))},
			},
			wantCount: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t, testutil.Now)
			for _, std := range tt.students {
				std.SubscriptionFee = 4000
				f.student(t, std)
			}
			mailSvc := emailsvc.NewConsoleServiceMock("Madrasa")
			clock := core.FixedClock(testutil.Now)
			students := student.NewService(f.store.Students, f.store.Teachers, clock, student.DefaultEvaluator)
			notifier := NewNotifier(students, mailSvc, tt.recipients, clock, core.NopLogger)

			count, err := notifier.SendExpiringDigest(context.Background(), 7)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, count)

			sent := mailSvc.Messages()
			if !tt.wantSent {
				assert.Empty(t, sent)
				return
			}
			require.Len(t, sent, 1)
			msg := sent[0]
			assert.Equal(t, staff, msg.To)
			assert.Equal(t, "Subscriptions needing attention", msg.Subject)
			assert.Contains(t, msg.TextContent, "Subscriptions needing attention on 2024-01-05 (2)")
			assert.Contains(t, msg.TextContent, "- Chidi [monthly] expired: -3 day(s) left")
			assert.Contains(t, msg.TextContent, "- Bilal [per_session] warning: 1 session(s) left")
			assert.NotContains(t, msg.TextContent, "Amina")
			assert.Contains(t, msg.HTMLContent, "<td>Bilal</td>")
		})
	}
}
