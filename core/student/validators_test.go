package student

import (
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/madrasa/core"
)

func newValidator(t *testing.T) (*validator.Validate, ut.Translator) {
	english := en.New()
	translator, ok := ut.New(english, english).GetTranslator("en")
	require.True(t, ok)

	validate := validator.New()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate, translator
}

func TestNewStudent_Validate(t *testing.T) {
	validate, translator := newValidator(t)

	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	before := start.AddDate(0, 0, -1)
	valid := func() NewStudent {
		return NewStudent{
			Name:             "Amina",
			Category:         CategoryAutism,
			Age:              9,
			Phone:            "+243 810 000 000",
			SubscriptionType: Monthly,
			SubscriptionFee:  4000,
		}
	}

	tests := []struct {
		name       string
		modify     func(ns *NewStudent)
		wantFields map[string]string // field: message ("" only checks the field)
	}{
		{name: "valid", modify: func(ns *NewStudent) {}},
		{name: "type defaults to monthly", modify: func(ns *NewStudent) { ns.SubscriptionType = "" }},
		{name: "cleaned enums", modify: func(ns *NewStudent) { ns.Category = " AUTISM "; ns.SubscriptionType = "Per_Session" }},
		{
			name:       "short name",
			modify:     func(ns *NewStudent) { ns.Name = " A " },
			wantFields: map[string]string{"name": "name must be at least 2 characters in length"},
		},
		{
			name:       "unknown category",
			modify:     func(ns *NewStudent) { ns.Category = "gifted" },
			wantFields: map[string]string{"category": categoryText},
		},
		{
			name:       "too young",
			modify:     func(ns *NewStudent) { ns.Age = 2 },
			wantFields: map[string]string{"age": ""},
		},
		{
			name:       "too old",
			modify:     func(ns *NewStudent) { ns.Age = 19 },
			wantFields: map[string]string{"age": ""},
		},
		{
			name:       "bad phone",
			modify:     func(ns *NewStudent) { ns.Phone = "call me maybe" },
			wantFields: map[string]string{"phone": "only digits, spaces, dashes and a leading + are allowed"},
		},
		{
			name:       "low fee",
			modify:     func(ns *NewStudent) { ns.SubscriptionFee = 999 },
			wantFields: map[string]string{"subscription_fee": ""},
		},
		{
			name:       "unknown type",
			modify:     func(ns *NewStudent) { ns.SubscriptionType = "yearly" },
			wantFields: map[string]string{"subscription_type": subTypeText},
		},
		{
			name:       "end before start",
			modify:     func(ns *NewStudent) { ns.SubscriptionStartDate = &start; ns.SubscriptionEndDate = &before },
			wantFields: map[string]string{"subscription_end_date": endBeforeStartText},
		},
		{
			name: "per_session ignores dates",
			modify: func(ns *NewStudent) {
				ns.SubscriptionType = PerSession
				ns.SubscriptionStartDate = &start
				ns.SubscriptionEndDate = &before
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns := valid()
			tt.modify(&ns)

			err := ns.Validate(validate)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				assert.True(t, ns.SubscriptionType.IsValid())
				return
			}

			var vErrs validator.ValidationErrors
			require.ErrorAs(t, err, &vErrs)
			require.Len(t, vErrs, len(tt.wantFields))
			for _, fe := range vErrs {
				want, ok := tt.wantFields[fe.Field()]
				require.True(t, ok, "unexpected error on %s", fe.Field())
				if want != "" {
					assert.Equal(t, want, fe.Translate(translator))
				}
			}
		})
	}
}

func TestUpdateStudent_Merge(t *testing.T) {
	end := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	orig := Student{
		Name:             "Amina",
		Category:         CategoryAutism,
		Age:              9,
		Phone:            "0810000000",
		SubscriptionType: Monthly,
		SubscriptionFee:  4000,
		Active:           true,
	}
	orig.SubscriptionEndDate.SetValid(end)

	name, fee, inactive := "Amina B.", int64(5000), false
	ns := UpdateStudent{Name: &name, SubscriptionFee: &fee, Active: &inactive}.Merge(orig)

	assert.Equal(t, "Amina B.", ns.Name)
	assert.Equal(t, int64(5000), ns.SubscriptionFee)
	assert.Equal(t, CategoryAutism, ns.Category)
	assert.Equal(t, 9, ns.Age)
	require.NotNil(t, ns.SubscriptionEndDate)
	assert.True(t, ns.SubscriptionEndDate.Equal(end))
	require.NotNil(t, ns.Active)
	assert.False(t, *ns.Active)
}
